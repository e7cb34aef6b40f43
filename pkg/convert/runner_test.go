package convert_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/schemaconv/internal/observability"
	"github.com/Sumatoshi-tech/schemaconv/pkg/convert"
	"github.com/Sumatoshi-tech/schemaconv/pkg/transform"
)

const pageSchema = `export default {
  name: "page",
  type: "document",
  fields: [
    {name: "title", type: "string"},
  ],
}
`

const pageConverted = `import {defineField, defineType} from "sanity";
export const page = defineType({
  name: "page",
  type: "document",
  fields: [
    defineField({name: "title", type: "string"}),
  ],
})
`

const helperModule = "export const slugify = (value) => value.toLowerCase();\n"

func newRunner(t *testing.T, opts convert.Options) *convert.Runner {
	t.Helper()

	if opts.Include == nil {
		opts.Include = []string{"**/*.{js,jsx}"}
	}

	runner, err := convert.NewRunner(transform.New(transform.Options{}), opts)
	require.NoError(t, err)

	return runner
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestRunner_ConvertsAndMirrorsTree(t *testing.T) {
	t.Parallel()

	input, output := t.TempDir(), t.TempDir()
	writeFiles(t, input, map[string]string{
		"documents/page.js": pageSchema,
		"lib/slugify.js":    helperModule,
		"README.md":         "# schemas\n",
	})

	summary, err := newRunner(t, convert.Options{Input: input, Output: output, Workers: 2}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Files, 2)
	assert.Equal(t, "documents/page.js", summary.Files[0].Source)
	assert.Equal(t, "documents/page.ts", summary.Files[0].Output)
	assert.Equal(t, convert.FileConverted, summary.Files[0].Status)
	assert.Equal(t, "page", summary.Files[0].Schema)
	assert.Equal(t, 1, summary.Files[0].Stats.FieldsWrapped)
	assert.Equal(t, convert.FileUnchanged, summary.Files[1].Status)

	assert.Equal(t, pageConverted, readFile(t, filepath.Join(output, "documents", "page.ts")))
	assert.Equal(t, helperModule, readFile(t, filepath.Join(output, "lib", "slugify.ts")))
	assert.NoFileExists(t, filepath.Join(output, "README.md"))

	assert.Equal(t, 2, summary.Totals.Files)
	assert.Equal(t, 1, summary.Totals.Converted)
	assert.Equal(t, 1, summary.Totals.Unchanged)
	assert.Equal(t, 1, summary.Totals.Stats.FieldsWrapped)
}

func TestRunner_ParseFailureDoesNotAbortBatch(t *testing.T) {
	t.Parallel()

	input, output := t.TempDir(), t.TempDir()
	writeFiles(t, input, map[string]string{
		"broken.js": "export default {name: 'x',",
		"page.js":   pageSchema,
	})

	summary, err := newRunner(t, convert.Options{Input: input, Output: output}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Files, 2)
	assert.Equal(t, convert.FileFailed, summary.Files[0].Status)
	assert.Contains(t, summary.Files[0].Error, "broken.js")
	assert.Equal(t, convert.FileConverted, summary.Files[1].Status)

	assert.NoFileExists(t, filepath.Join(output, "broken.ts"))
	assert.FileExists(t, filepath.Join(output, "page.ts"))
	assert.Equal(t, 1, summary.Totals.Failed)
}

func TestRunner_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	input, output := t.TempDir(), t.TempDir()
	writeFiles(t, input, map[string]string{"page.js": pageSchema, "lib.js": helperModule})

	summary, err := newRunner(t, convert.Options{Input: input, Output: output, DryRun: true}).Run(context.Background())
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(output, "page.ts"))
	assert.True(t, summary.DryRun)

	require.Len(t, summary.Files, 2)
	assert.Empty(t, summary.Files[0].Diff, "unchanged files have no diff")
	assert.Contains(t, summary.Files[1].Diff, "--- page.js\n+++ page.ts\n")
	assert.Contains(t, summary.Files[1].Diff, "+export const page = defineType({\n")
	assert.Contains(t, summary.Files[1].Diff, "-export default {\n")
}

func TestRunner_DryRunNeedsNoOutput(t *testing.T) {
	t.Parallel()

	_, err := convert.NewRunner(transform.New(transform.Options{}), convert.Options{Input: t.TempDir()})
	require.ErrorIs(t, err, convert.ErrNoOutput)

	_, err = convert.NewRunner(transform.New(transform.Options{}), convert.Options{Input: t.TempDir(), DryRun: true})
	require.NoError(t, err)
}

func TestRunner_SkipsOversizedFiles(t *testing.T) {
	t.Parallel()

	input, output := t.TempDir(), t.TempDir()
	writeFiles(t, input, map[string]string{"page.js": pageSchema, "tiny.js": "1;\n"})

	summary, err := newRunner(t, convert.Options{Input: input, Output: output, MaxFileSize: 16}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Files, 2)
	assert.Equal(t, convert.FileSkipped, summary.Files[0].Status)
	assert.Equal(t, convert.FileUnchanged, summary.Files[1].Status)
	assert.NoFileExists(t, filepath.Join(output, "page.ts"))
	assert.Equal(t, 1, summary.Totals.Skipped)
}

func TestRunner_CacheSharesIdenticalSources(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	metrics, err := observability.NewConversionMetrics(meter)
	require.NoError(t, err)

	input, output := t.TempDir(), t.TempDir()
	writeFiles(t, input, map[string]string{"a/page.js": pageSchema, "b/page.js": pageSchema})

	runner := newRunner(t, convert.Options{
		Input:     input,
		Output:    output,
		Workers:   1,
		CacheSize: 8,
		Metrics:   metrics,
	})

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Files, 2)
	assert.False(t, summary.Files[0].Cached)
	assert.True(t, summary.Files[1].Cached)
	assert.Equal(t, pageConverted, readFile(t, filepath.Join(output, "b", "page.ts")))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := make(map[string]bool)

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}

	assert.True(t, names["schemaconv.cache.lookups.total"])
	assert.True(t, names["schemaconv.files.total"])
}

func TestRunner_AppliesTransformOptions(t *testing.T) {
	t.Parallel()

	input, output := t.TempDir(), t.TempDir()
	writeFiles(t, input, map[string]string{"page.js": `export default {
  name: "page",
  type: "document",
  fields: [
    {name: "title", type: "string"},
    {name: "accent", type: "color"},
  ],
}
`})

	opts := transform.Options{Exclude: transform.NewExclusionSet("color")}

	runner, err := convert.NewRunner(transform.New(opts), convert.Options{
		Input:   input,
		Output:  output,
		Include: []string{"*.js"},
	})
	require.NoError(t, err)

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Files, 1)
	assert.Equal(t, 1, summary.Files[0].Stats.FieldsPruned)
	assert.NotContains(t, readFile(t, filepath.Join(output, "page.ts")), "accent")
}

func TestRunner_CanceledContext(t *testing.T) {
	t.Parallel()

	input, output := t.TempDir(), t.TempDir()
	writeFiles(t, input, map[string]string{"page.js": pageSchema})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newRunner(t, convert.Options{Input: input, Output: output}).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Empty(t, summary.Files)
}

func TestRunner_InputNotDir(t *testing.T) {
	t.Parallel()

	_, err := newRunner(t, convert.Options{Input: filepath.Join(t.TempDir(), "nope"), DryRun: true}).
		Run(context.Background())
	require.ErrorIs(t, err, convert.ErrInputNotDir)
}

func TestRunner_LogsCarryFile(t *testing.T) {
	t.Parallel()

	input := t.TempDir()
	writeFiles(t, input, map[string]string{"broken.js": "export default {name: 'x',"})

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	logger := slog.New(observability.NewConversionHandler(slog.NewJSONHandler(&buf, nil), cfg))

	_, err := newRunner(t, convert.Options{Input: input, DryRun: true, Logger: logger}).Run(context.Background())
	require.NoError(t, err)

	var failed map[string]any

	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var record map[string]any
		require.NoError(t, json.Unmarshal(line, &record))

		if record["msg"] == "conversion failed" {
			failed = record
		}
	}

	require.NotNil(t, failed)
	assert.Equal(t, "broken.js", failed[observability.AttrFile])
}
