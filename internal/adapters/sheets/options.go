package sheets

import (
	"time"

	"google.golang.org/api/option"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithSpreadsheetID sets the target spreadsheet.
func WithSpreadsheetID(id string) Option {
	return func(c *Client) {
		c.spreadsheetID = id
	}
}

// WithSettingsSheet sets the worksheet holding seller keys and dates.
func WithSettingsSheet(name string) Option {
	return func(c *Client) {
		c.settingsSheet = name
	}
}

// WithCredentialsFile points at the service account JSON key.
func WithCredentialsFile(path string) Option {
	return func(c *Client) {
		c.credentialsFile = path
	}
}

// WithLocation sets the location used when parsing sheet dates.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		c.location = loc
	}
}

// WithClientOptions passes raw options to the underlying Google API
// client. Used in tests to point at a fake server.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.clientOptions = opts
	}
}
