// Package graph is a REST client for a Microsoft-Graph-style directory and
// calendar API. It backs both the directory searcher and the calendar gateway.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kairoshq/kairos/internal/people"
	"github.com/kairoshq/kairos/internal/version"
)

const userSelect = "id,displayName,givenName,surname,mail,userPrincipalName"

type Client struct {
	baseURL string
	token   string
	logger  *slog.Logger
	http    *http.Client
}

func NewClient(log *slog.Logger, baseURL, token string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("graph client: base url is required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("graph client: token is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  log.With(slog.String("client", "graph")),
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type graphUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	GivenName         string `json:"givenName"`
	Surname           string `json:"surname"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

type userPage struct {
	Value []graphUser `json:"value"`
}

func toIdentity(u graphUser) people.Identity {
	identity := people.Identity{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		GivenName:   u.GivenName,
		FamilyName:  u.Surname,
		Mail:        u.Mail,
	}
	if u.UserPrincipalName != "" {
		identity.Aliases = append(identity.Aliases, u.UserPrincipalName)
	}
	return identity
}

func mapUsers(users []graphUser) []people.Identity {
	out := make([]people.Identity, 0, len(users))
	for _, u := range users {
		out = append(out, toIdentity(u))
	}
	return out
}

// escapeODataLiteral doubles single quotes inside a filter literal.
func escapeODataLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// SearchByName runs the primary starts-with search on display name, mail, and
// principal name for the whole term.
func (c *Client) SearchByName(ctx context.Context, term string, limit int) ([]people.Identity, error) {
	safe := escapeODataLiteral(term)
	filter := strings.Join([]string{
		fmt.Sprintf("startswith(displayName,'%s')", safe),
		fmt.Sprintf("startswith(mail,'%s')", safe),
		fmt.Sprintf("startswith(userPrincipalName,'%s')", safe),
	}, " or ")

	query := url.Values{}
	query.Set("$filter", filter)
	query.Set("$top", strconv.Itoa(limit))
	query.Set("$orderby", "displayName")
	query.Set("$select", userSelect)

	var page userPage
	if err := c.get(ctx, "/users", query, false, &page); err != nil {
		return nil, err
	}
	return mapUsers(page.Value), nil
}

// SearchByPrefix runs the advanced starts-with filter for one token across
// display name, given name, surname, and mail. OR filters across fields need
// the eventual-consistency header.
func (c *Client) SearchByPrefix(ctx context.Context, token string, limit int) ([]people.Identity, error) {
	safe := escapeODataLiteral(token)
	filter := strings.Join([]string{
		fmt.Sprintf("startswith(displayName,'%s')", safe),
		fmt.Sprintf("startswith(givenName,'%s')", safe),
		fmt.Sprintf("startswith(surname,'%s')", safe),
		fmt.Sprintf("startswith(mail,'%s')", safe),
	}, " or ")

	query := url.Values{}
	query.Set("$filter", filter)
	query.Set("$top", strconv.Itoa(limit))
	query.Set("$orderby", "displayName")
	query.Set("$select", userSelect)

	var page userPage
	if err := c.get(ctx, "/users", query, true, &page); err != nil {
		return nil, err
	}
	return mapUsers(page.Value), nil
}

// SearchBySurnameInitial matches users whose surname starts with the initial.
func (c *Client) SearchBySurnameInitial(ctx context.Context, initial string, limit int) ([]people.Identity, error) {
	query := url.Values{}
	query.Set("$filter", fmt.Sprintf("startswith(surname,'%s')", escapeODataLiteral(initial)))
	query.Set("$top", strconv.Itoa(limit))
	query.Set("$orderby", "displayName")
	query.Set("$select", userSelect)

	var page userPage
	if err := c.get(ctx, "/users", query, true, &page); err != nil {
		return nil, err
	}
	return mapUsers(page.Value), nil
}

// GetByID fetches one user. A 404 maps to people.ErrNotFound.
func (c *Client) GetByID(ctx context.Context, id string) (people.Identity, error) {
	query := url.Values{}
	query.Set("$select", userSelect)

	var user graphUser
	if err := c.get(ctx, "/users/"+url.PathEscape(id), query, false, &user); err != nil {
		return people.Identity{}, err
	}
	return toIdentity(user), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, consistent bool, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if consistent {
		req.Header.Set("ConsistencyLevel", "eventual")
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return people.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var parsed graphError
		if json.Unmarshal(b, &parsed) == nil && parsed.Error.Message != "" {
			return fmt.Errorf("graph error: %s", parsed.Error.Message)
		}
		return fmt.Errorf("graph error: %s", strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
