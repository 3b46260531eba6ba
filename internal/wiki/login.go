package wiki

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cgt.name/pkg/go-mwclient/params"
)

// LoginError reports a failed or misdirected login.
type LoginError struct {
	Wiki    string
	Details string
}

// Error implements the error interface.
func (e *LoginError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("error while logging in to %q: %s", e.Wiki, e.Details)
	}
	return fmt.Sprintf("error while logging in to %q", e.Wiki)
}

// Credentials is a bot-password credential pair. The username may carry a
// "@botpassword" suffix, which is not part of the on-wiki user name.
type Credentials struct {
	Username string
	Password string
}

// CredentialsFromEnv reads credentials from the two environment variables.
func CredentialsFromEnv(userVar, passVar string) (Credentials, error) {
	creds := Credentials{
		Username: os.Getenv(userVar),
		Password: os.Getenv(passVar),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("credentials not set: %s and %s must both be non-empty", userVar, passVar)
	}
	return creds, nil
}

// User returns the on-wiki user name, with the bot-password identifier
// stripped and spaces normalized the way MediaWiki reports user names.
func (c Credentials) User() string {
	user, _, _ := strings.Cut(c.Username, "@")
	return strings.ReplaceAll(user, " ", "_")
}

// LoginOptions configure Login.
type LoginOptions struct {
	// APIURL is the full api.php URL of the target wiki.
	APIURL string

	// UserAgent identifies the bot per the API etiquette.
	UserAgent string

	// Wiki is the expected wiki id. Login fails if the connected wiki
	// reports a different id, guarding against a credential/URL mix-up.
	Wiki string

	Credentials Credentials
}

// Login connects to the wiki, authenticates, and validates post-login that
// both the wiki and the user are the expected ones.
func Login(logger *slog.Logger, opts LoginOptions) (*Client, error) {
	logger.Info("Logging in to wiki...")

	client, err := Connect(opts.APIURL, opts.UserAgent)
	if err != nil {
		return nil, &LoginError{Wiki: opts.Wiki, Details: err.Error()}
	}
	if err := client.mw.Login(opts.Credentials.Username, opts.Credentials.Password); err != nil {
		return nil, &LoginError{Wiki: opts.Wiki, Details: err.Error()}
	}

	wikiID, err := client.fetchWikiID()
	if err != nil {
		return nil, &LoginError{Wiki: opts.Wiki, Details: err.Error()}
	}
	if opts.Wiki != "" && wikiID != opts.Wiki {
		return nil, &LoginError{
			Wiki:    opts.Wiki,
			Details: fmt.Sprintf("actual wiki is %q (%s)", wikiID, opts.APIURL),
		}
	}
	client.wikiID = wikiID

	user, err := client.fetchUsername()
	if err != nil {
		return nil, &LoginError{Wiki: opts.Wiki, Details: err.Error()}
	}
	wikiUser := strings.ReplaceAll(user, " ", "_")
	if expected := opts.Credentials.User(); expected != "" && wikiUser != expected {
		return nil, &LoginError{
			Wiki:    opts.Wiki,
			Details: fmt.Sprintf("logged in as %q but expected %q", wikiUser, expected),
		}
	}
	client.username = wikiUser

	logger.Info(fmt.Sprintf("Logged in to wiki %q (%s) with user %q.", wikiID, opts.APIURL, wikiUser))
	return client, nil
}

func (c *Client) fetchWikiID() (string, error) {
	resp, err := c.mw.Get(params.Values{
		"action": "query",
		"meta":   "siteinfo",
		"siprop": "general",
	})
	if err != nil {
		return "", fmt.Errorf("fetch siteinfo: %w", err)
	}
	if id, err := resp.GetString("query", "general", "wikiid"); err == nil && id != "" {
		return id, nil
	}
	// Not all installations expose a wikiid; fall back to the server name.
	name, err := resp.GetString("query", "general", "servername")
	if err != nil {
		return "", fmt.Errorf("siteinfo has neither wikiid nor servername: %w", err)
	}
	return name, nil
}

func (c *Client) fetchUsername() (string, error) {
	resp, err := c.mw.Get(params.Values{
		"action": "query",
		"meta":   "userinfo",
	})
	if err != nil {
		return "", fmt.Errorf("fetch userinfo: %w", err)
	}
	name, err := resp.GetString("query", "userinfo", "name")
	if err != nil {
		return "", fmt.Errorf("userinfo has no name: %w", err)
	}
	return name, nil
}
