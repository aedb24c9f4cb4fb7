// Package protocol implements the client side of the git smart-HTTP
// protocol: ref discovery and the upload-pack fetch.
// https://git-scm.com/docs/http-protocol
package protocol

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/goabstract/minigit/internal/errutil"
	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/pktline"
	"golang.org/x/xerrors"
)

const (
	uploadPackService = "git-upload-pack"

	uploadPackRequestType = "application/x-git-upload-pack-request"
	uploadPackResultType  = "application/x-git-upload-pack-result"
)

var (
	// ErrNoHead is an error thrown when a remote advertises no HEAD
	ErrNoHead = errors.New("no HEAD advertised")

	// ErrInvalidResponse is an error thrown when a response of the
	// remote cannot be parsed
	ErrInvalidResponse = errors.New("invalid server response")
)

// Ref represents a reference advertised by a remote
type Ref struct {
	Name string
	ID   plumbing.Oid
}

// Client talks to a single remote repository over smart HTTP
type Client struct {
	httpClient *http.Client
	url        string
}

// NewClient returns a Client for the repository at the given URL
func NewClient(url string) *Client {
	return &Client{
		httpClient: http.DefaultClient,
		url:        url,
	}
}

// FetchRefs asks the remote for its list of refs.
// The response is pkt-line framed: a service announcement terminated by
// a flush packet, then one line per ref until another flush. Each ref
// line contains "<hex40> <name>", the name ending at a NULL char (the
// first line carries the server capabilities after it) or a newline.
// The first advertised ref is HEAD
func (c *Client) FetchRefs() (refs []Ref, err error) {
	res, err := c.httpClient.Get(c.url + "/info/refs?service=" + uploadPackService)
	if err != nil {
		return nil, xerrors.Errorf("could not fetch %s refs: %w", c.url, err)
	}
	defer errutil.Close(res.Body, &err)

	if res.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("unexpected status %s: %w", res.Status, ErrInvalidResponse)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, xerrors.Errorf("could not read the advertisement: %w", err)
	}
	return parseRefAdvertisement(body)
}

func parseRefAdvertisement(body []byte) ([]Ref, error) {
	scanner := pktline.NewScanner(body)

	// Discard everything up to and including the first flush packet:
	// it's the service announcement
	for scanner.Scan() {
		if scanner.Line().Flush {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("could not parse the service announcement: %w", err)
	}

	refs := []Ref{}
	for scanner.Scan() {
		line := scanner.Line()
		if line.Flush {
			break
		}
		ref, err := parseRefLine(line.Payload)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("could not parse the ref list: %w", err)
	}
	return refs, nil
}

// parseRefLine extracts a ref from a payload of the form
// "<hex40> <name>[\0<caps>]\n"
func parseRefLine(payload []byte) (Ref, error) {
	// 40 hex chars, a space, and at least 1 char of name
	if len(payload) < 42 {
		return Ref{}, xerrors.Errorf("ref line %q too short: %w", payload, ErrInvalidResponse)
	}
	oid, err := plumbing.NewOidFromChars(payload[:40])
	if err != nil {
		return Ref{}, xerrors.Errorf("invalid id in ref line %q: %w", payload, err)
	}

	name := payload[41:]
	if i := bytes.IndexAny(name, "\x00\n"); i != -1 {
		name = name[:i]
	}
	return Ref{Name: string(name), ID: oid}, nil
}

// Head returns the HEAD ref out of an advertised list
func Head(refs []Ref) (Ref, error) {
	for _, ref := range refs {
		if ref.Name == "HEAD" {
			return ref, nil
		}
	}
	return Ref{}, ErrNoHead
}

// FetchPack asks the remote for a packfile containing the wanted
// objects, and returns the raw pack stream.
// The request body is pkt-line framed: one "want <hex40>" line per
// object, a flush packet, then "done". The response starts with one
// pkt-line of acknowledgment which is skipped up to and including its
// terminating newline
func (c *Client) FetchPack(wants []plumbing.Oid) (pack []byte, err error) {
	if len(wants) == 0 {
		return nil, xerrors.Errorf("no object requested: %w", ErrInvalidResponse)
	}

	var body []byte
	for _, oid := range wants {
		body = pktline.Append(body, []byte("want "+oid.String()+"\n"))
	}
	body = pktline.AppendFlush(body)
	body = pktline.Append(body, []byte("done\n"))

	req, err := http.NewRequest(http.MethodPost, c.url+"/"+uploadPackService, bytes.NewReader(body))
	if err != nil {
		return nil, xerrors.Errorf("could not create the upload-pack request: %w", err)
	}
	req.Header.Set("Content-Type", uploadPackRequestType)
	req.Header.Set("Accept", uploadPackResultType)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("could not fetch the pack: %w", err)
	}
	defer errutil.Close(res.Body, &err)

	if res.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("unexpected status %s: %w", res.Status, ErrInvalidResponse)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, xerrors.Errorf("could not read the pack: %w", err)
	}

	// The pack is preceded by a NAK (or ACK) line; everything up to and
	// including its newline gets dropped
	i := bytes.IndexByte(data, '\n')
	if i == -1 {
		return nil, xerrors.Errorf("no acknowledgment before the pack: %w", ErrInvalidResponse)
	}
	return data[i+1:], nil
}
