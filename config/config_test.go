package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/reglet-multiscale/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
version: "1.0"
multiscale_steps: 3
content_image: images/content.jpg
style_image: images/style.jpg
transfer:
  module: plugins/transfer.wasm
neural_style:
  model_file: models/vgg19.pth
  image_size: {type: ListParamStrategy, values: [256, 512, 1024]}
  num_iterations: 200
  style_layers: [relu1_1, relu2_1]
  tv_weight: 0.001
`

const hclConfig = `
version          = "1.0"
multiscale_steps = 2
content_image    = "content.jpg"
style_image      = "/data/style.jpg"
log_level        = "debug"

neural_style = {
  image_size     = { type = "ListParamStrategy", values = [256, 512] }
  num_iterations = 200
}
`

const jsonConfig = `{
  "multiscale_steps": 1,
  "content_image": "c.png",
  "style_image": "s.png",
  "transfer": {"reference": "ghcr.io/example/transfer:1.0.0", "entry": "run"},
  "neural_style": {"num_iterations": 10}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "multiscale.yaml", yamlConfig)
	dir := filepath.Dir(path)

	run, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "1.0", run.Version)
	assert.Equal(t, 3, run.Steps)
	assert.Equal(t, filepath.Join(dir, "images", "content.jpg"), run.ContentImage)
	assert.Equal(t, filepath.Join(dir, "images", "style.jpg"), run.StyleImage)
	assert.Equal(t, filepath.Join(dir, "plugins", "transfer.wasm"), run.Transfer.Module)
	assert.Equal(t, "transfer", run.Transfer.Entry)
	assert.Equal(t, "info", run.LogLevel)
	assert.Equal(t, "text", run.LogFormat)

	assert.Equal(t, 200, run.Params["num_iterations"])
	assert.Equal(t, "models/vgg19.pth", run.Params["model_file"])
	assert.Equal(t, []any{"relu1_1", "relu2_1"}, run.Params["style_layers"])
	assert.Equal(t,
		map[string]any{"type": "ListParamStrategy", "values": []any{256, 512, 1024}},
		run.Params["image_size"])
}

func TestLoad_HCL(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "multiscale.hcl", hclConfig)

	run, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, run.Steps)
	assert.Equal(t, "/data/style.jpg", run.StyleImage)
	assert.Equal(t, "debug", run.LogLevel)
	assert.Equal(t, float64(200), run.Params["num_iterations"])
	assert.Equal(t,
		map[string]any{"type": "ListParamStrategy", "values": []any{float64(256), float64(512)}},
		run.Params["image_size"])
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "multiscale.json", jsonConfig)

	run, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, run.Steps)
	assert.Equal(t, "ghcr.io/example/transfer:1.0.0", run.Transfer.Reference)
	assert.Equal(t, "run", run.Transfer.Entry)
	assert.Empty(t, run.Transfer.Module)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "run.toml", "x = 1"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "run.yaml", "multiscale_steps: [1"))
		assert.Error(t, err)
	})

	t.Run("hcl with variables", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "run.hcl", "multiscale_steps = var.steps\n"))
		assert.Error(t, err)
	})

	t.Run("hcl blocks", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "run.hcl", "neural_style {\n  a = 1\n}\n"))
		assert.Error(t, err)
	})
}

func TestDecode_Validation(t *testing.T) {
	t.Parallel()

	valid := func() map[string]any {
		return map[string]any{
			"multiscale_steps": 2,
			"content_image":    "c.png",
			"style_image":      "s.png",
			"neural_style":     map[string]any{"a": 1},
		}
	}

	tests := []struct {
		mutate  func(doc map[string]any)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(map[string]any) {}},
		{name: "missing steps", mutate: func(d map[string]any) { delete(d, "multiscale_steps") }, wantErr: true},
		{name: "zero steps", mutate: func(d map[string]any) { d["multiscale_steps"] = 0 }, wantErr: true},
		{name: "fractional steps", mutate: func(d map[string]any) { d["multiscale_steps"] = 1.5 }, wantErr: true},
		{name: "missing params", mutate: func(d map[string]any) { delete(d, "neural_style") }, wantErr: true},
		{name: "params not a mapping", mutate: func(d map[string]any) { d["neural_style"] = []any{1} }, wantErr: true},
		{name: "empty content image", mutate: func(d map[string]any) { d["content_image"] = "" }, wantErr: true},
		{name: "unknown key", mutate: func(d map[string]any) { d["multiscale_step"] = 2 }, wantErr: true},
		{name: "bad log level", mutate: func(d map[string]any) { d["log_level"] = "loud" }, wantErr: true},
		{name: "json log format", mutate: func(d map[string]any) { d["log_format"] = "json" }},
		{name: "supported version", mutate: func(d map[string]any) { d["version"] = "1.2" }},
		{name: "unsupported version", mutate: func(d map[string]any) { d["version"] = "2.0" }, wantErr: true},
		{name: "invalid version", mutate: func(d map[string]any) { d["version"] = "latest" }, wantErr: true},
		{
			name: "module and reference",
			mutate: func(d map[string]any) {
				d["transfer"] = map[string]any{"module": "t.wasm", "reference": "ghcr.io/x/t:1"}
			},
			wantErr: true,
		},
		{
			name:    "unknown transfer key",
			mutate:  func(d map[string]any) { d["transfer"] = map[string]any{"path": "t.wasm"} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := valid()
			tt.mutate(doc)
			run, err := config.Decode(doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, config.ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, run)
		})
	}
}

func TestDecode_Nil(t *testing.T) {
	t.Parallel()

	_, err := config.Decode(nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	s, err := config.Schema()
	require.NoError(t, err)
	for _, key := range []string{"multiscale_steps", "content_image", "style_image", "neural_style", "transfer"} {
		assert.Contains(t, s, `"`+key+`"`)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := config.NewLogger("debug", "json", &buf)
	logger.Debug("hello", "step", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"step":1`)

	buf.Reset()
	logger = config.NewLogger("bogus", "text", &buf)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")

	buf.Reset()
	run := &config.Run{LogLevel: "warn", LogFormat: "text"}
	run.Logger(&buf).Info("quiet")
	assert.Empty(t, buf.String())
}
