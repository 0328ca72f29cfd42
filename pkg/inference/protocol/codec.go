package protocol

import (
	"bytes"
	_ "embed"
	"text/template"
	"time"

	"github.com/Masterminds/sprig"
	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/pkg/errors"
)

//go:embed templates/system.tmpl
var systemPromptTemplate string

// Codec renders the system prompt and decodes model replies.
// A Codec is immutable once built and safe for concurrent use.
type Codec struct {
	tmpl    *template.Template
	live    bool
	clock   func() time.Time
	profile map[string]string
}

type Option func(*Codec)

// WithLiveContext appends a context section with the current time to the
// prompt. It is rendered after the format instructions.
func WithLiveContext(clock func() time.Time) Option {
	return func(c *Codec) {
		c.live = true
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithProfile adds user profile entries to the live context section.
func WithProfile(profile map[string]string) Option {
	return func(c *Codec) {
		c.profile = make(map[string]string, len(profile))
		for k, v := range profile {
			c.profile[k] = v
		}
	}
}

// WithTemplate replaces the built-in system prompt template.
func WithTemplate(tmpl *template.Template) Option {
	return func(c *Codec) {
		c.tmpl = tmpl
	}
}

func NewCodec(options ...Option) (*Codec, error) {
	c := &Codec{clock: time.Now}
	for _, o := range options {
		o(c)
	}
	if c.tmpl == nil {
		tmpl, err := template.New("system").Funcs(sprig.TxtFuncMap()).Parse(systemPromptTemplate)
		if err != nil {
			return nil, errors.Wrap(err, "could not parse system prompt template")
		}
		c.tmpl = tmpl
	}
	return c, nil
}

type promptData struct {
	Tools   []tools.ToolDescriptor
	Live    bool
	Now     time.Time
	Zone    string
	Profile map[string]string
}

// RenderPrompt embeds the tool catalog into the system prompt. Without live
// context the output only depends on descs.
func (c *Codec) RenderPrompt(descs []tools.ToolDescriptor) (string, error) {
	data := promptData{Tools: descs, Live: c.live, Profile: c.profile}
	if c.live {
		data.Now = c.clock()
		data.Zone = data.Now.Location().String()
	}

	buf := &bytes.Buffer{}
	if err := c.tmpl.Execute(buf, data); err != nil {
		return "", errors.Wrap(err, "could not render system prompt")
	}
	return buf.String(), nil
}
