package bust

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/torfstack/bust/internal/pipeline"
)

const foobarMD5 = "3858f62230ac3c915f300c664312c63f"

func newBust(t *testing.T, modify func(*Options)) *Bust {
	t.Helper()
	opts := DefaultOptions()
	if modify != nil {
		modify(&opts)
	}
	b, err := New(opts)
	require.NoError(t, err)
	return b
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{name: "defaults", opts: DefaultOptions()},
		{name: "sha1 truncated", opts: Options{HashLength: 4, HashType: "sha1"}},
		{name: "unknown hash", opts: Options{HashType: "crc32"}, wantErr: ErrUnsupportedHash},
		{name: "negative length", opts: Options{HashLength: -1, HashType: "md5"}, wantErr: ErrInvalidHashLength},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				b, err := New(tt.opts)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
					return
				}
				require.NoError(t, err)
				require.Equal(t, tt.opts, b.Options())
				require.Empty(t, b.Mappings())
			},
		)
	}
}

func TestDefaultOptions(t *testing.T) {
	require.Equal(t, Options{HashLength: 0, HashType: "md5", Production: true}, DefaultOptions())
}

func TestInstancesDoNotShareState(t *testing.T) {
	a := newBust(t, nil)
	b := newBust(t, nil)

	a.ProcessAsset(pipeline.NewBufferFile("src", filepath.Join("src", "foo.png"), []byte("foobar")))
	require.Len(t, a.Mappings(), 1)
	require.Empty(t, b.Mappings())
}

func TestDigest(t *testing.T) {
	tests := []struct {
		hashType string
		want     string
	}{
		{hashType: "md5", want: foobarMD5},
		{hashType: "sha1", want: "8843d7f92416211de9ebb963ff4ce28125932878"},
		{hashType: "sha256", want: "c3ab8ff13720e8ad9047dd39466b3c8974e592c2fa383d4a3960714caef0c4f2"},
	}
	for _, tt := range tests {
		t.Run(
			tt.hashType, func(t *testing.T) {
				got, err := Digest(tt.hashType, []byte("foobar"))
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			},
		)
	}

	t.Run(
		"every registered hash is deterministic", func(t *testing.T) {
			for _, name := range HashTypes() {
				first, err := Digest(name, []byte("same content"))
				require.NoError(t, err)
				second, err := Digest(name, []byte("same content"))
				require.NoError(t, err)
				assert.Equal(t, first, second, name)
				assert.Equal(t, strings.ToLower(first), first, name)
			}
		},
	)

	t.Run(
		"unknown hash", func(t *testing.T) {
			_, err := Digest("whirlpool", nil)
			require.ErrorIs(t, err, ErrUnsupportedHash)
		},
	)
}

func TestRename(t *testing.T) {
	tests := []struct {
		name       string
		hashLength int
		path       string
		want       string
	}{
		{name: "full hash", path: "/img/foo.bar.png", want: "/img/foo.bar.1234.png"},
		{name: "truncated hash", hashLength: 2, path: "/img/foo.bar.png", want: "/img/foo.bar.12.png"},
		{name: "length beyond hash", hashLength: 10, path: "/img/foo.png", want: "/img/foo.1234.png"},
		{name: "dotted directory", path: "/v1.2/app.js", want: "/v1.2/app.1234.js"},
		{name: "no extension", path: "/bin/LICENSE", want: "/bin/LICENSE.1234"},
		{name: "dot file", path: "/.htaccess", want: "/.htaccess.1234"},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				b := newBust(t, func(o *Options) { o.HashLength = tt.hashLength })
				require.Equal(t, tt.want, b.rename(tt.path, "1234"))
			},
		)
	}
}

func TestSanitise(t *testing.T) {
	require.Equal(t, "foo/bar/foo/bar", sanitise(`foo\bar\foo\bar`, true))
	require.Equal(t, `foo\bar\foo\bar`, sanitise(`foo\bar\foo\bar`, false))
	require.Equal(t, "foo/bar", SanitisePath("foo/bar"))
}

func TestProcessAsset(t *testing.T) {
	base := filepath.Join("site", "src")

	t.Run(
		"production renames and maps to the busted path", func(t *testing.T) {
			b := newBust(t, nil)
			f := pipeline.NewBufferFile(base, filepath.Join(base, "img", "foo.png"), []byte("foobar"))

			b.ProcessAsset(f)

			require.Equal(t, filepath.Join(base, "img", "foo."+foobarMD5+".png"), f.Path)
			require.Equal(t, map[string]string{"img/foo.png": "img/foo." + foobarMD5 + ".png"}, b.Mappings())
		},
	)

	t.Run(
		"production with truncation", func(t *testing.T) {
			b := newBust(t, func(o *Options) { o.HashLength = 8 })
			f := pipeline.NewBufferFile(base, filepath.Join(base, "foo.png"), []byte("foobar"))

			b.ProcessAsset(f)

			require.Equal(t, map[string]string{"foo.png": "foo.3858f622.png"}, b.Mappings())
		},
	)

	t.Run(
		"identical content gives identical names", func(t *testing.T) {
			b := newBust(t, nil)
			first := pipeline.NewBufferFile(base, filepath.Join(base, "a.css"), []byte("body{}"))
			second := pipeline.NewBufferFile(base, filepath.Join(base, "a.css"), []byte("body{}"))

			b.ProcessAsset(first)
			b.ProcessAsset(second)
			require.Equal(t, first.Path, second.Path)
		},
	)

	t.Run(
		"development leaves paths alone", func(t *testing.T) {
			b := newBust(t, func(o *Options) { o.Production = false })
			paths := []string{filepath.Join("img", "foo.png"), filepath.Join("css", "site.css")}
			for _, p := range paths {
				f := pipeline.NewBufferFile(base, filepath.Join(base, p), []byte("foobar"))
				b.ProcessAsset(f)
				require.Equal(t, filepath.Join(base, p), f.Path)
			}
			for k, v := range b.Mappings() {
				require.Equal(t, k, v)
			}
			require.Len(t, b.Mappings(), 2)
		},
	)
}

func TestProcessReferences(t *testing.T) {
	mappings := map[string]string{
		"foo.png": "foo.123.png",
		"bar.gif": "bar.123.gif",
		"baz.pdf": "baz.123.pdf",
	}

	t.Run(
		"replaces every occurrence exactly", func(t *testing.T) {
			b := newBust(t, nil)
			b.mappings = mappings
			b.generation++
			b.BuildMatcher()

			f := pipeline.NewBufferFile("", "index.html", []byte("foo foo.png and bar.gif then baz.pdf"))
			b.ProcessReferences(f)
			require.Equal(t, "foo foo.123.png and bar.123.gif then baz.123.pdf", string(f.Contents))

			f = pipeline.NewBufferFile("", "index.html", []byte("foo.png foo.png"))
			b.ProcessReferences(f)
			require.Equal(t, "foo.123.png foo.123.png", string(f.Contents))
		},
	)

	t.Run(
		"dots are literal", func(t *testing.T) {
			b := newBust(t, nil)
			b.mappings = mappings
			b.generation++
			b.BuildMatcher()

			f := pipeline.NewBufferFile("", "index.html", []byte("fooXpng"))
			b.ProcessReferences(f)
			require.Equal(t, "fooXpng", string(f.Contents))
		},
	)

	t.Run(
		"longest key wins", func(t *testing.T) {
			b := newBust(t, nil)
			b.mappings = map[string]string{
				"app.js":     "app.1.js",
				"app.js.map": "app.js.2.map",
			}
			b.generation++
			b.BuildMatcher()

			f := pipeline.NewBufferFile("", "index.html", []byte("app.js app.js.map"))
			b.ProcessReferences(f)
			require.Equal(t, "app.1.js app.js.2.map", string(f.Contents))
		},
	)

	t.Run(
		"empty mapping leaves contents untouched", func(t *testing.T) {
			b := newBust(t, nil)
			b.BuildMatcher()

			contents := []byte("foo.png \x00\xff")
			f := pipeline.NewBufferFile("", "index.html", contents)
			b.ProcessReferences(f)
			require.Equal(t, []byte("foo.png \x00\xff"), f.Contents)
		},
	)

	t.Run(
		"stale matcher is rebuilt", func(t *testing.T) {
			b := newBust(t, func(o *Options) { o.Production = false })
			b.BuildMatcher()
			b.mappings["foo.png"] = "foo.123.png"
			b.generation++

			f := pipeline.NewBufferFile("", "index.html", []byte("foo.png"))
			b.ProcessReferences(f)
			require.Equal(t, "foo.123.png", string(f.Contents))
		},
	)

	t.Run(
		"empty file stays buffered", func(t *testing.T) {
			b := newBust(t, nil)
			b.mappings = mappings
			b.generation++

			f := pipeline.NewBufferFile("", "empty.html", nil)
			b.ProcessReferences(f)
			require.True(t, f.IsBuffer())
			require.Empty(t, f.Contents)
		},
	)
}

type recordingPipe struct {
	pushed  []*pipeline.File
	emitted []error
}

func (p *recordingPipe) Push(f *pipeline.File) {
	p.pushed = append(p.pushed, f)
}

func (p *recordingPipe) Emit(err error) {
	p.emitted = append(p.emitted, err)
}

func TestFunnel(t *testing.T) {
	tests := []struct {
		name        string
		file        *pipeline.File
		wantCalls   int
		wantPushed  int
		wantEmitted int
	}{
		{
			name: "null file is skipped",
			file: &pipeline.File{Path: "dir"},
		},
		{
			name:        "stream is reported and passed through",
			file:        &pipeline.File{Path: "foo.png", Stream: io.NopCloser(strings.NewReader("foobar"))},
			wantPushed:  1,
			wantEmitted: 1,
		},
		{
			name:       "buffer goes through the operation",
			file:       pipeline.NewBufferFile("", "foo.png", []byte("foobar")),
			wantCalls:  1,
			wantPushed: 1,
		},
	}
	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				calls := 0
				fn := NewFunnel(func(f *pipeline.File) { calls++ })
				p := &recordingPipe{}

				require.NoError(t, fn.Transform(tt.file, p))
				require.Equal(t, tt.wantCalls, calls)
				require.Len(t, p.pushed, tt.wantPushed)
				require.Len(t, p.emitted, tt.wantEmitted)
				if tt.wantEmitted > 0 {
					var pe *pipeline.PluginError
					require.ErrorAs(t, p.emitted[0], &pe)
					require.Equal(t, PluginName, pe.Plugin)
					require.Equal(t, "Streaming not supported", pe.Message)
				}
			},
		)
	}
}

func TestResourcesThenReferences(t *testing.T) {
	base := "src"
	b := newBust(t, func(o *Options) { o.HashLength = 6 })

	assets := []*pipeline.File{
		pipeline.NewBufferFile(base, filepath.Join(base, "img", "logo.png"), []byte("foobar")),
		{Base: base, Path: filepath.Join(base, "img")},
	}
	collected := &pipeline.Collector{}
	require.NoError(t, pipeline.Run(b.Resources(), assets, collected))
	require.Len(t, collected.Files, 1)

	html := pipeline.NewBufferFile(base, filepath.Join(base, "index.html"), []byte(`<img src="/img/logo.png">`))
	collected = &pipeline.Collector{}
	require.NoError(t, pipeline.Run(b.References(), []*pipeline.File{html}, collected))
	require.Equal(t, `<img src="/img/logo.3858f6.png">`, string(collected.Files[0].Contents))
}
