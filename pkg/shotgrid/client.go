// Package shotgrid is a small client for the ShotGrid REST API covering the
// Group and Note entities used for budget notifications.
package shotgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	apiPrefix       = "/api/v1"
	tokenPath       = apiPrefix + "/auth/access_token"
	searchMediaType = "application/vnd+shotgun.api3_array+json"
	defaultPageSize = 500
	defaultTimeout  = 30 * time.Second
)

// Credentials selects the authentication flow. Script credentials are
// preferred over a user login when both are present.
type Credentials struct {
	URL        string
	ScriptName string
	APIKey     string
	Login      string
	Password   string
}

// Client talks to one ShotGrid site.
type Client struct {
	baseURL  string
	client   *http.Client
	pageSize int
}

// New authenticates against the site and returns a client whose HTTP
// transport refreshes the access token as needed.
func New(ctx context.Context, creds Credentials) (*Client, error) {
	if creds.URL == "" {
		return nil, fmt.Errorf("shotgrid url: %w", model.ErrInsufficientCredentials)
	}
	base := strings.TrimRight(creds.URL, "/")
	tokenURL := base + tokenPath

	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: defaultTimeout})

	var ts oauth2.TokenSource
	switch {
	case creds.ScriptName != "" && creds.APIKey != "":
		cc := &clientcredentials.Config{
			ClientID:     creds.ScriptName,
			ClientSecret: creds.APIKey,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		ts = cc.TokenSource(ctx)
	case creds.Login != "" && creds.Password != "":
		conf := &oauth2.Config{
			Endpoint: oauth2.Endpoint{TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams},
		}
		tok, err := conf.PasswordCredentialsToken(ctx, creds.Login, creds.Password)
		if err != nil {
			return nil, fmt.Errorf("shotgrid login: %w", err)
		}
		ts = conf.TokenSource(ctx, tok)
	default:
		return nil, fmt.Errorf("shotgrid script_name/api_key or login/password: %w", model.ErrInsufficientCredentials)
	}

	// Fail fast on bad credentials rather than on the first notification.
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("shotgrid authenticate: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = defaultTimeout
	return &Client{baseURL: base, client: httpClient, pageSize: defaultPageSize}, nil
}

// NewWithHTTPClient returns a client that sends requests through hc as-is.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: hc, pageSize: defaultPageSize}
}

// SetPageSize overrides the search page size.
func (c *Client) SetPageSize(n int) {
	if n > 0 {
		c.pageSize = n
	}
}

// EntityRef points at another entity.
type EntityRef struct {
	Type string `json:"type"`
	ID   int    `json:"id"`
}

type entity struct {
	Type          string                     `json:"type"`
	ID            int                        `json:"id"`
	Attributes    map[string]json.RawMessage `json:"attributes"`
	Relationships map[string]relationship    `json:"relationships"`
}

type relationship struct {
	Data json.RawMessage `json:"data"`
}

type singleResponse struct {
	Data entity `json:"data"`
}

type listResponse struct {
	Data  []entity          `json:"data"`
	Links map[string]string `json:"links"`
}

type searchRequest struct {
	Filters [][]any `json:"filters"`
}

func (e entity) attrString(name string) string {
	raw, ok := e.Attributes[name]
	if !ok {
		return ""
	}
	var s string
	_ = json.Unmarshal(raw, &s)
	return s
}

func (e entity) relation(name string) (EntityRef, bool) {
	rel, ok := e.Relationships[name]
	if !ok || len(rel.Data) == 0 || string(rel.Data) == "null" {
		return EntityRef{}, false
	}
	var ref EntityRef
	if err := json.Unmarshal(rel.Data, &ref); err != nil || ref.ID == 0 {
		return EntityRef{}, false
	}
	return ref, true
}

func toGroup(e entity) model.Group {
	g := model.Group{ID: e.ID, Code: e.attrString("code")}
	if ref, ok := e.relation("sg_group_project"); ok {
		g.ProjectID = ref.ID
	}
	return g
}

// FindGroups returns every Group whose code contains substr.
func (c *Client) FindGroups(ctx context.Context, substr string) ([]model.Group, error) {
	body := searchRequest{Filters: [][]any{{"code", "contains", substr}}}

	var groups []model.Group
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("fields", "code,sg_group_project")
		q.Set("page[number]", strconv.Itoa(page))
		q.Set("page[size]", strconv.Itoa(c.pageSize))

		var resp listResponse
		if err := c.do(ctx, http.MethodPost, "/entity/groups/_search?"+q.Encode(), searchMediaType, body, &resp); err != nil {
			return nil, fmt.Errorf("search groups: %w", err)
		}
		for _, e := range resp.Data {
			groups = append(groups, toGroup(e))
		}
		if len(resp.Data) < c.pageSize || resp.Links["next"] == "" {
			break
		}
	}
	return groups, nil
}

// CreateGroup creates a Group with the given code.
func (c *Client) CreateGroup(ctx context.Context, code string) (model.Group, error) {
	var resp singleResponse
	if err := c.do(ctx, http.MethodPost, "/entity/groups", "application/json", map[string]any{"code": code}, &resp); err != nil {
		return model.Group{}, fmt.Errorf("create group: %w", err)
	}
	return toGroup(resp.Data), nil
}

// NoteRequest describes a Note addressed to recipients on a project.
type NoteRequest struct {
	Subject      string
	Content      string
	AddressingTo []EntityRef
	ProjectID    int
}

// CreateNote creates an open Note.
func (c *Client) CreateNote(ctx context.Context, n NoteRequest) (model.Note, error) {
	payload := map[string]any{
		"subject":        n.Subject,
		"content":        n.Content,
		"sg_status_list": "opn",
		"addressings_to": n.AddressingTo,
		"project":        EntityRef{Type: "Project", ID: n.ProjectID},
	}

	var resp singleResponse
	if err := c.do(ctx, http.MethodPost, "/entity/notes", "application/json", payload, &resp); err != nil {
		return model.Note{}, fmt.Errorf("create note: %w", err)
	}
	return model.Note{ID: resp.Data.ID, Subject: resp.Data.attrString("subject")}, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return model.NewError(model.KindTransient, method+" "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return model.NewError(model.KindTransient, method+" "+path,
			fmt.Errorf("%w: shotgrid returned status %d", model.ErrAccessDenied, resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.NewError(model.KindTransient, method+" "+path,
			fmt.Errorf("shotgrid returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return model.NewError(model.KindDataShape, method+" "+path, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err))
	}
	return nil
}
