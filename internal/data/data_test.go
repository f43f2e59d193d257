package data

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *Data
	}{
		{
			name:    "single object",
			content: `{"name": "A", "tags": ["x", "y"], "addr": {"city": "Kazan"}}`,
			want: &Data{Records: []any{
				map[string]any{
					"name": "A",
					"tags": []any{"x", "y"},
					"addr": map[string]any{"city": "Kazan"},
				},
			}},
		},
		{
			name:    "array of objects",
			content: `[{"name": "A"}, {"name": "B", "_filename": "b.docx"}]`,
			want: &Data{Sequence: true, Records: []any{
				map[string]any{"name": "A"},
				map[string]any{"name": "B", "_filename": "b.docx"},
			}},
		},
		{
			name:    "array of scalars",
			content: `["a", "b"]`,
			want:    &Data{Sequence: true, Records: []any{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(context.Background(), writeFile(t, "data.json", tt.content))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseJSON_EmptyArray(t *testing.T) {
	got, err := ParseJSON([]byte(`[]`))
	require.NoError(t, err)
	assert.True(t, got.Sequence)
	assert.Empty(t, got.Records)
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeFile(t, "data.json", `{"name": `)

	_, err := Load(context.Background(), path)
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.Path)
	assert.Equal(t, "json", pe.Format)
	assert.NotNil(t, pe.Err)
}

func TestLoad_CSV(t *testing.T) {
	content := "name,address.city,_filename\nA,Kazan,\nB, Omsk ,b.docx\n"

	got, err := Load(context.Background(), writeFile(t, "data.csv", content))
	require.NoError(t, err)

	want := &Data{Sequence: true, Records: []any{
		Record{"name": "A", "address.city": "Kazan", "_filename": ""},
		Record{"name": "B", "address.city": "Omsk", "_filename": "b.docx"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []any
	}{
		{
			name:    "single row is still a sequence",
			content: "a,b\n1,2\n",
			want:    []any{Record{"a": "1", "b": "2"}},
		},
		{
			name:    "missing cells are empty",
			content: "a,b,c\n1\n",
			want:    []any{Record{"a": "1", "b": "", "c": ""}},
		},
		{
			name:    "extra cells get positional names",
			content: "a\n1,2,3\n",
			want:    []any{Record{"a": "1", "field2": "2", "field3": "3"}},
		},
		{
			name:    "byte order mark and blank lines",
			content: "\ufeffa,b\n\n1,2\n\n",
			want:    []any{Record{"a": "1", "b": "2"}},
		},
		{
			name:    "quoted cells",
			content: "a,b\n\"x, y\",\"line1\nline2\"\n",
			want:    []any{Record{"a": "x, y", "b": "line1\nline2"}},
		},
		{
			name:    "header only",
			content: "a,b\n",
			want:    []any{},
		},
		{
			name:    "empty input",
			content: "",
			want:    []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSV(context.Background(), strings.NewReader(tt.content))
			require.NoError(t, err)
			assert.True(t, got.Sequence)
			if diff := cmp.Diff(tt.want, got.Records); diff != "" {
				t.Errorf("ParseCSV() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCSV_Malformed(t *testing.T) {
	_, err := ParseCSV(context.Background(), strings.NewReader("a,b\n\"unterminated,2\n"))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "csv", pe.Format)
}

func TestParseCSV_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseCSV(ctx, strings.NewReader("a\n1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	for _, name := range []string{"data.xml", "data", "data.json.bak", "data.JSON", "data.Csv"} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(context.Background(), filepath.Join(t.TempDir(), name))
			require.Error(t, err)

			var ue *UnsupportedFormatError
			require.True(t, errors.As(err, &ue))
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
