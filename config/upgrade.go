package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/creachadair/atomicfile"
	"github.com/creachadair/tomledit"
	"github.com/creachadair/tomledit/parser"
	"github.com/creachadair/tomledit/transform"
	"github.com/spf13/viper"
)

// upgradePlan is the sequence of transformation steps that bring a config
// file written by an older release up to the current grammar. Keys already
// present keep their values.
var upgradePlan = func() transform.Plan {
	defaults := DefaultConfig()
	ps := defaults.PendingSync

	ensure := func(table parser.Key, name, value string, comments ...string) transform.Step {
		return transform.Step{
			Desc: fmt.Sprintf("Add %s setting", strings.Join(append(append([]string{}, table...), name), ".")),
			T: transform.EnsureKey(table, &parser.KeyValue{
				Block: parser.Comments(comments),
				Name:  parser.Key{name},
				Value: parser.MustValue(value),
			}),
		}
	}

	return transform.Plan{
		{
			Desc: "Rename everything from snake_case to kebab-case",
			T:    transform.SnakeToKebab(),
		},
		ensure(nil, "class-cache-size", strconv.Itoa(defaults.ClassCacheSize),
			"Number of class hashes whose presence in the class store is cached"),
		{
			Desc: "Add [pending-sync] table",
			T: transform.Func(func(_ context.Context, doc *tomledit.Document) error {
				if transform.FindTable(doc, "pending-sync") != nil {
					return nil
				}
				doc.Sections = append(doc.Sections, &tomledit.Section{
					Heading: &parser.Heading{
						Block: parser.Comments{
							"#######################################################",
							"###          Pending Sync Configuration Options     ###",
							"#######################################################",
						},
						Name: parser.Key{"pending-sync"},
					},
				})
				return nil
			}),
		},
		ensure(parser.Key{"pending-sync"}, "enable", strconv.FormatBool(ps.Enable),
			"Follow the sequencer's pending block"),
		ensure(parser.Key{"pending-sync"}, "poll-interval", strconv.Quote(ps.PollInterval.String()),
			"Delay between two polls of the pending block"),
		ensure(parser.Key{"pending-sync"}, "state-update-timeout", strconv.Quote(ps.StateUpdateTimeout.String()),
			"Upper bound on the pending state update query"),
		ensure(parser.Key{"pending-sync"}, "event-buffer-size", strconv.Itoa(ps.EventBufferSize),
			"Capacity of the pending event channel"),
		ensure(parser.Key{"pending-sync"}, "class-fetchers", strconv.Itoa(ps.ClassFetchers),
			"Number of classes downloaded concurrently"),
	}
}()

// UpgradeConfigFile rewrites the config file at path in place, adding the
// settings introduced since it was written. Comments and values of the
// existing settings are preserved. The result must be a valid config, or the
// file is left untouched.
func UpgradeConfigFile(ctx context.Context, path string) error {
	doc, err := loadConfigDocument(path)
	if err != nil {
		return err
	}
	if err := upgradePlan.Apply(ctx, doc); err != nil {
		return fmt.Errorf("upgrading %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := tomledit.Format(&buf, doc); err != nil {
		return fmt.Errorf("formatting %s: %w", path, err)
	}
	if err := checkValid(buf.Bytes()); err != nil {
		return fmt.Errorf("upgraded %s is invalid: %w", path, err)
	}
	return atomicfile.WriteData(path, buf.Bytes(), 0644)
}

func loadConfigDocument(path string) (*tomledit.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tomledit.Parse(f)
}

func checkValid(data []byte) error {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return err
	}
	return cfg.ValidateBasic()
}
