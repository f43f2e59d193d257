package godocx

import (
	"io"
	"log/slog"
)

// Delimiters mark the beginning and end of a tag.
type Delimiters struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Options configures template construction. The zero value is usable:
// missing fields fall back to DefaultOptions.
type Options struct {
	Delimiters Delimiters `json:"delimiters" yaml:"delimiters"`
	// ParagraphLoop drops paragraphs that hold nothing but a section tag
	// instead of repeating them with the section body.
	ParagraphLoop bool `json:"paragraphLoop" yaml:"paragraphLoop"`
	// Linebreaks turns "\n" in rendered values into w:br elements.
	Linebreaks bool `json:"linebreaks" yaml:"linebreaks"`
	// NullValue is written for tags that evaluate to nil.
	NullValue string `json:"nullValue" yaml:"nullValue"`

	// Parser compiles tag expressions. Defaults to DefaultParser.
	Parser Parser `json:"-" yaml:"-"`
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// DefaultOptions returns the options used for unset fields.
func DefaultOptions() Options {
	return Options{
		Delimiters: Delimiters{Start: "{", End: "}"},
		Parser:     DefaultParser,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Delimiters.Start == "" {
		o.Delimiters.Start = def.Delimiters.Start
	}
	if o.Delimiters.End == "" {
		o.Delimiters.End = def.Delimiters.End
	}
	if o.Parser == nil {
		o.Parser = def.Parser
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

func (o Options) validate() error {
	if o.Delimiters.Start == o.Delimiters.End {
		e := newError(NameTemplate, "delimiters_equal", "Start and end delimiters must differ")
		e.Tag = o.Delimiters.Start
		return e
	}
	return nil
}
