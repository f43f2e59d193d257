package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	godocx "github.com/Navl-bm/docxtemplater"
	"github.com/Navl-bm/docxtemplater/internal/logging"
)

// UsageError is a command line that cannot be run: a wrong argument count
// or an unknown flag. The usage text is printed for it.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// OptionsParseError reports template options that could not be decoded.
// Source is "--options" or the options file path.
type OptionsParseError struct {
	Source string
	Err    error
}

func (e *OptionsParseError) Error() string {
	return fmt.Sprintf("parse options from %s: %v", e.Source, e.Err)
}

func (e *OptionsParseError) Unwrap() error { return e.Err }

// Config is everything a run needs, built once from the command line.
type Config struct {
	Input  string
	Data   string
	Output string

	Options godocx.Options
	Logger  *slog.Logger
}

type flags struct {
	options     string
	optionsFile string
	logLevel    string
	logFormat   string
	help        bool
}

// buildConfig merges engine defaults, the options file and --options, in
// that order.
func buildConfig(args []string, f *flags, logOutput io.Writer) (Config, error) {
	if len(args) != 3 {
		return Config{}, &UsageError{Err: errors.Errorf("expected 3 arguments, got %d", len(args))}
	}

	level, err := logging.ParseLevel(f.logLevel)
	if err != nil {
		return Config{}, &UsageError{Err: err}
	}
	format, err := logging.ParseFormat(f.logFormat)
	if err != nil {
		return Config{}, &UsageError{Err: err}
	}

	var opts godocx.Options
	if f.optionsFile != "" {
		content, err := os.ReadFile(f.optionsFile)
		if err != nil {
			return Config{}, errors.Wrap(err, "read options file")
		}
		if err := decodeYAMLOptions(content, &opts); err != nil {
			return Config{}, errors.WithStack(&OptionsParseError{Source: f.optionsFile, Err: err})
		}
	}
	if f.options != "" {
		if err := decodeJSONOptions([]byte(f.options), &opts); err != nil {
			return Config{}, errors.WithStack(&OptionsParseError{Source: "--" + FlagOptions, Err: err})
		}
	}

	logger := logging.New(logging.Config{Level: level, Format: format, Output: logOutput})
	opts.Logger = logger

	return Config{
		Input:   args[0],
		Data:    args[1],
		Output:  args[2],
		Options: opts,
		Logger:  logger,
	}, nil
}

func decodeJSONOptions(content []byte, opts *godocx.Options) error {
	if err := validateOptions(content); err != nil {
		return err
	}
	return json.Unmarshal(content, opts)
}

func decodeYAMLOptions(content []byte, opts *godocx.Options) error {
	var doc any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return err
	}
	asJSON, err := yamlToJSON(doc)
	if err != nil {
		return err
	}
	if err := validateOptions(asJSON); err != nil {
		return err
	}
	return yaml.Unmarshal(content, opts)
}
