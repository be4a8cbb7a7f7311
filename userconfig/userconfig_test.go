package userconfig

import (
	"bytes"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		description   string
		conf          string
		shouldBeError bool
		shouldBeEmpty bool
	}{
		{
			description:   "valid case",
			shouldBeError: false,
			shouldBeEmpty: false,
			conf: `---
storage:
    storageDir: ./tempTestDir3012705204
    tablePrefix: url_shortener_table
cache:
    maxEntries: 10000
http:
    listenAddress: ":8080"
shortcodes:
    defaultLength: 20`,
		},
		{
			description:   "missing storage section",
			shouldBeError: true,
			shouldBeEmpty: true,
			conf: `---
http:
    listenAddress: ":8080"`,
		},
		{
			description:   "not yaml",
			shouldBeError: true,
			shouldBeEmpty: true,
			conf:          `this is not yaml`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			b := bytes.NewBuffer([]byte(tc.conf))
			m, err := Parse(b)

			if (err != nil) != tc.shouldBeError {
				t.Errorf(
					"%v: unexpected error status: wanted %v but got %v with error %v",
					tc.description,
					tc.shouldBeError,
					err != nil,
					err,
				)
			}

			if reflect.DeepEqual(*m, Meta{}) != tc.shouldBeEmpty {
				l := map[bool]string{
					true:  "to be",
					false: "not to be",
				}
				t.Errorf(
					"%v: expected the Meta %v nil, but got the opposite",
					tc.description,
					l[tc.shouldBeEmpty],
				)
			}
		})
	}
}

func TestCheckAndSetDefaults(t *testing.T) {
	testCases := []struct {
		description string
		meta        Meta
		wantErr     bool
		check       func(t *testing.T, c Meta)
	}{
		{
			description: "defaults applied",
			meta: Meta{
				Storage: Storage{DirPath: "./data"},
			},
			wantErr: false,
			check: func(t *testing.T, c Meta) {
				if c.HTTP.ListenAddress != ":8080" {
					t.Errorf("default listen address not applied: %v", c.HTTP.ListenAddress)
				}
				if c.Shortcodes.DefaultLength != 20 {
					t.Errorf("default code length not applied: %v", c.Shortcodes.DefaultLength)
				}
				if c.Storage.TablePrefix != "url_shortener_table" {
					t.Errorf("default table prefix not applied: %v", c.Storage.TablePrefix)
				}
			},
		},
		{
			description: "in-memory mode needs no storage dir",
			meta: Meta{
				Storage: Storage{InMemory: true},
			},
			wantErr: false,
		},
		{
			description: "no storage dir and not in-memory",
			meta:        Meta{},
			wantErr:     true,
		},
		{
			description: "negative cache bound",
			meta: Meta{
				Storage: Storage{DirPath: "./data"},
				Cache:   Cache{MaxEntries: -1},
			},
			wantErr: true,
		},
		{
			description: "negative code length",
			meta: Meta{
				Storage:    Storage{DirPath: "./data"},
				Shortcodes: Shortcodes{DefaultLength: -3},
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			c, err := tc.meta.CheckAndSetDefaults()
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr = %v but got %v with err %v", tc.wantErr, err != nil, err)
			}
			if tc.check != nil && err == nil {
				tc.check(t, c)
			}
		})
	}
}
