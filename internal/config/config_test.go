package config

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := New("myscript", map[string]Value{
		"foo": Int(1),
		"bar": Bool(true),
	})

	assert.True(t, cfg.IsDefault())

	v, ok := cfg.Get("foo")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	cfg.Set("foo", Int(2))
	assert.False(t, cfg.IsDefault())
}

func TestConfig_TypedGetters(t *testing.T) {
	cfg := New("myscript", map[string]Value{
		"enabled": Bool(true),
		"limit":   Int(10),
		"ratio":   Float(0.5),
		"page":    String("User:Someone/Sandbox"),
	})

	enabled, err := cfg.Bool("enabled")
	require.NoError(t, err)
	assert.True(t, enabled)

	limit, err := cfg.Int("limit")
	require.NoError(t, err)
	assert.Equal(t, int64(10), limit)

	ratio, err := cfg.Float("ratio")
	require.NoError(t, err)
	assert.Equal(t, 0.5, ratio)

	page, err := cfg.Text("page")
	require.NoError(t, err)
	assert.Equal(t, "User:Someone/Sandbox", page)
}

func TestConfig_FloatAcceptsInt(t *testing.T) {
	cfg := New("myscript", map[string]Value{"delay": Int(8)})

	delay, err := cfg.Float("delay")
	require.NoError(t, err)
	assert.Equal(t, 8.0, delay)
}

func TestConfig_TypeError(t *testing.T) {
	cfg := New("myscript", map[string]Value{"limit": String("lots")})

	_, err := cfg.Int("limit")

	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "myscript", typeErr.Script)
	assert.Equal(t, "limit", typeErr.Key)
	assert.Equal(t, String("lots"), typeErr.Value)
	assert.Equal(t, []Kind{KindInt}, typeErr.Want)
	// The message identifies key, value, actual type and expected type.
	for _, part := range []string{`"limit"`, `"lots"`, "string", "int"} {
		assert.Contains(t, err.Error(), part)
	}
}

func TestConfig_MissingKey(t *testing.T) {
	cfg := New("myscript", nil)

	_, err := cfg.Text("absent")

	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Nil(t, typeErr.Value)
	assert.Contains(t, err.Error(), "missing")
}

func TestConfig_LoadString(t *testing.T) {
	cfg := New("myscript", map[string]Value{
		"foo": Int(1),
		"bar": Bool(true),
	})

	cfg.LoadString("|bar=false|baz=10.5")

	bar, err := cfg.Bool("bar")
	require.NoError(t, err)
	assert.False(t, bar)

	baz, err := cfg.Float("baz")
	require.NoError(t, err)
	assert.Equal(t, 10.5, baz)

	// foo was not overridden and falls back to its default.
	foo, err := cfg.Int("foo")
	require.NoError(t, err)
	assert.Equal(t, int64(1), foo)

	assert.False(t, cfg.IsDefault())
}

// fakeReader serves canned pages for LoadWiki tests.
type fakeReader map[string]string

func (f fakeReader) PageText(title string) (string, bool, error) {
	if strings.HasPrefix(title, "error:") {
		return "", false, fmt.Errorf("read %q: boom", title)
	}
	text, ok := f[title]
	return text, ok, nil
}

func TestConfig_LoadWiki(t *testing.T) {
	reader := fakeReader{
		"User:Bot/bot/scripts/myscript/config": `
Some explanation for human readers.

{{myscript config
| wiki_page = User:Someone/util/Wiki extension updates
| enabled   = true
| limit     = 25
}}`,
	}
	cfg := New("myscript", map[string]Value{
		"enabled": Bool(false),
		"minor":   Bool(true),
	})

	require.NoError(t, cfg.LoadWiki(reader, "User:Bot/bot/scripts/myscript/config"))

	page, err := cfg.Text("wiki_page")
	require.NoError(t, err)
	assert.Equal(t, "User:Someone/util/Wiki extension updates", page)

	enabled, err := cfg.Bool("enabled")
	require.NoError(t, err)
	assert.True(t, enabled)

	limit, err := cfg.Int("limit")
	require.NoError(t, err)
	assert.Equal(t, int64(25), limit)

	// Default key not on the page is backfilled.
	minor, err := cfg.Bool("minor")
	require.NoError(t, err)
	assert.True(t, minor)
}

func TestConfig_LoadWikiMissingPage(t *testing.T) {
	cfg := New("myscript", nil)

	err := cfg.LoadWiki(fakeReader{}, "User:Bot/bot/scripts/myscript/config")

	var notFound *PageNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "myscript", notFound.Script)
}

func TestConfig_LoadWikiReadError(t *testing.T) {
	cfg := New("myscript", map[string]Value{"foo": Int(1)})

	err := cfg.LoadWiki(fakeReader{}, "error:config")

	require.Error(t, err)
	assert.False(t, errors.As(err, new(*PageNotFoundError)))
	// A failed read leaves the configuration untouched.
	assert.True(t, cfg.IsDefault())
}

func TestConfig_LoadWikiNoTemplate(t *testing.T) {
	reader := fakeReader{"p": "No template call here at all."}
	cfg := New("myscript", map[string]Value{"foo": Int(1)})

	require.NoError(t, cfg.LoadWiki(reader, "p"))
	assert.True(t, cfg.IsDefault())
}

func TestConfig_LoadWikiPositionalParams(t *testing.T) {
	reader := fakeReader{"p": "{{cfg|first|second|named=x}}"}
	cfg := New("myscript", nil)

	require.NoError(t, cfg.LoadWiki(reader, "p"))

	one, err := cfg.Text("1")
	require.NoError(t, err)
	assert.Equal(t, "first", one)
	two, err := cfg.Text("2")
	require.NoError(t, err)
	assert.Equal(t, "second", two)
	named, err := cfg.Text("named")
	require.NoError(t, err)
	assert.Equal(t, "x", named)
}
