package transform_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/schemaconv/pkg/schema"
	"github.com/Sumatoshi-tech/schemaconv/pkg/syntax"
	"github.com/Sumatoshi-tech/schemaconv/pkg/transform"
)

const pageSchema = `export default {
  name: "page",
  type: "document",
  fields: [
    {name: "title", type: "string"},
    {name: "legacyWidget", type: "legacyWidget"},
  ],
}
`

func convert(t *testing.T, opts transform.Options, filename, src string) transform.Result {
	t.Helper()

	result, err := transform.New(opts).Convert(context.Background(), filename, []byte(src))
	require.NoError(t, err)

	return result
}

func TestConvert_PageExample(t *testing.T) {
	t.Parallel()

	opts := transform.DefaultOptions()
	opts.Exclude = transform.NewExclusionSet("legacyWidget")

	result := convert(t, opts, "page.js", pageSchema)

	want := `import {defineField, defineType} from "sanity";
export const page = defineType({
  name: "page",
  type: "document",
  fields: [
    defineField({name: "title", type: "string"}),
  ],
})
`

	assert.Equal(t, transform.StatusConverted, result.Status)
	assert.Equal(t, want, string(result.Output))
	assert.Equal(t, "page", result.Schema)
	assert.Equal(t, transform.Stats{FieldsWrapped: 1, FieldsPruned: 1}, result.Stats)
}

func TestConvert_OutputIsNotConvertedAgain(t *testing.T) {
	t.Parallel()

	tr := transform.New(transform.DefaultOptions())

	first, err := tr.Convert(context.Background(), "page.ts", []byte(pageSchema))
	require.NoError(t, err)
	require.Equal(t, transform.StatusConverted, first.Status)

	second, err := tr.Convert(context.Background(), "page.ts", first.Output)
	require.NoError(t, err)

	assert.Equal(t, transform.StatusUnchanged, second.Status)
	assert.Equal(t, first.Output, second.Output)
}

func TestConvert_WithoutSchemaReturnsInputUnchanged(t *testing.T) {
	t.Parallel()

	sources := []string{
		"const x = 1\n",
		"import {a} from \"@sanity/types\"\nexport default {name: kind, type: \"document\"}\n",
		"export const page = {name: \"page\", type: \"document\"}\n",
		"// __experimental_actions stays\nexport default {__experimental_actions: [], title: \"x\"}\n",
	}

	for _, src := range sources {
		result := convert(t, transform.DefaultOptions(), "schema.js", src)

		assert.Equal(t, transform.StatusUnchanged, result.Status, src)
		assert.Equal(t, src, string(result.Output), src)
		assert.Empty(t, result.Schema)
	}
}

func TestConvert_ParseFailure(t *testing.T) {
	t.Parallel()

	_, err := transform.New(transform.Options{}).Convert(context.Background(), "broken.js", []byte("export default {name: 'x',"))
	require.ErrorIs(t, err, syntax.ErrParse)
}

func TestConvert_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := transform.New(transform.Options{}).Convert(ctx, "page.js", []byte(pageSchema))
	require.ErrorIs(t, err, context.Canceled)
}

func TestConvert_WithoutFieldsImportsOnlyTypeFactory(t *testing.T) {
	t.Parallel()

	sources := map[string]string{
		"no fields":    "export default {name: \"logo\", type: \"image\"};\n",
		"empty fields": "export default {name: \"logo\", type: \"image\", fields: []};\n",
	}

	for label, src := range sources {
		result := convert(t, transform.Options{}, "logo.js", src)

		assert.True(t, strings.HasPrefix(string(result.Output), "import {defineType} from \"sanity\";\n"), label)
		assert.NotContains(t, string(result.Output), "defineField", label)
		assert.Contains(t, string(result.Output), "export const logo = defineType({name: \"logo\"", label)
		assert.True(t, strings.HasSuffix(string(result.Output), ");\n"), label)
	}
}

func TestConvert_FieldCountAfterExclusion(t *testing.T) {
	t.Parallel()

	src := `export default {
  name: "article",
  type: "document",
  fields: [
    {name: "a", type: "string"},
    {name: "b", type: "legacyWidget"},
    {name: "c", type: "text"},
    {name: "d", type: "oldEmbed"},
    {name: "e", type: "legacyWidget"},
  ],
}
`

	tests := []struct {
		exclude string
		want    int
	}{
		{exclude: "", want: 5},
		{exclude: "legacyWidget", want: 3},
		{exclude: "legacyWidget, oldEmbed", want: 2},
		{exclude: "string,text,legacyWidget,oldEmbed", want: 0},
	}

	for _, tc := range tests {
		opts := transform.DefaultOptions()
		opts.Exclude = transform.ParseExclusionSet(tc.exclude)

		result := convert(t, opts, "article.js", src)

		assert.Equal(t, tc.want, strings.Count(string(result.Output), "defineField("), tc.exclude)
		assert.Equal(t, tc.want, result.Stats.FieldsWrapped, tc.exclude)
		assert.Equal(t, 5-tc.want, result.Stats.FieldsPruned, tc.exclude)
	}
}

func TestConvert_PrunesExcludedPropertyValues(t *testing.T) {
	t.Parallel()

	src := `export default {
  name: "page",
  type: "document",
  preview: {name: "widget", type: "legacyWidget"},
  fields: [{name: "list", type: "array", of: [{name: "item", type: "legacyWidget"}, {type: "block"}]}],
}
`

	opts := transform.DefaultOptions()
	opts.Exclude = transform.NewExclusionSet("legacyWidget")

	result := convert(t, opts, "page.js", src)
	out := string(result.Output)

	assert.NotContains(t, out, "legacyWidget")
	assert.NotContains(t, out, "preview")
	assert.Contains(t, out, `of: [{type: "block"}]`)
	assert.Equal(t, 2, result.Stats.FieldsPruned)
}

func TestConvert_PrunesOrphanedFieldsets(t *testing.T) {
	t.Parallel()

	src := `export default {
  name: "post",
  type: "document",
  fieldsets: [{name: "seo", title: "SEO"}, {name: "legacy", title: "Legacy"}, {title: "Untitled"}, {name: "unused"}],
  fields: [
    {name: "title", type: "string", fieldset: "seo"},
    {name: "widget", type: "legacyWidget", fieldset: "legacy"},
  ],
}
`

	opts := transform.DefaultOptions()
	opts.Exclude = transform.NewExclusionSet("legacyWidget")

	result := convert(t, opts, "post.js", src)

	assert.Contains(t, string(result.Output), `fieldsets: [{name: "seo", title: "SEO"}, {title: "Untitled"}],`)
	assert.Equal(t, 2, result.Stats.FieldsetsPruned)
	assert.Equal(t, 1, result.Stats.FieldsPruned)
}

func TestConvert_KeepsFieldsetsReferencedByWrappedFields(t *testing.T) {
	t.Parallel()

	src := `export default {
  name: "post",
  type: "document",
  fieldsets: [{name: "seo"}],
  fields: [defineField({name: "title", type: "string", fieldset: "seo"})],
}
`

	result := convert(t, transform.Options{}, "post.js", src)

	assert.Contains(t, string(result.Output), `fieldsets: [{name: "seo"}]`)
	assert.Zero(t, result.Stats.FieldsetsPruned)
	assert.Zero(t, result.Stats.FieldsWrapped)
	assert.Contains(t, string(result.Output), `import {defineField, defineType} from "sanity";`)
}

func TestConvert_StripsDeprecatedAttributes(t *testing.T) {
	t.Parallel()

	src := `export default {
  name: "page",
  type: "document",
  __experimental_actions: ["update", "publish"],
  title: "Page",
}
`

	result := convert(t, transform.Options{}, "page.js", src)

	assert.Equal(t, `import {defineType} from "sanity";
export const page = defineType({
  name: "page",
  type: "document",
  title: "Page",
})
`, string(result.Output))
	assert.Equal(t, 1, result.Stats.AttributesStripped)

	opts := transform.Options{DeprecatedAttributes: []string{}}
	kept := convert(t, opts, "page.js", src)
	assert.Contains(t, string(kept.Output), "__experimental_actions")
}

func TestConvert_RewritesLegacyImports(t *testing.T) {
	t.Parallel()

	src := `import S from "@sanity/desk-tool/structure-builder";
import PatchEvent, {set, unset} from "@sanity/form-builder/PatchEvent";
import client from 'part:@sanity/base/client'
import {FormField} from "@sanity/form-builder";
import * as types from "@sanity/types";
import React from "react";
export default {name: "page", type: "document"};
`

	want := `import {defineType} from "sanity";
import {StructureBuilder as S} from "sanity/desk";
import {PatchEvent, set, unset} from "sanity";
import {useClient as client} from 'sanity'
import {FormField} from "sanity";
import * as types from "sanity";
import React from "react";
export const page = defineType({name: "page", type: "document"});
`

	result := convert(t, transform.Options{}, "page.js", src)

	assert.Equal(t, want, string(result.Output))
	assert.Equal(t, 5, result.Stats.ImportsRewritten)
}

func TestConvert_ImportRulesApplyPerDeclaration(t *testing.T) {
	t.Parallel()

	lines := []string{
		`import {FormField} from "@sanity/form-builder";`,
		`import {Rule} from "@sanity/types";`,
		`import {FormField as Field} from "@sanity/form-builder";`,
	}
	export := `export default {name: "page", type: "document"};`

	forward := convert(t, transform.Options{}, "page.js", strings.Join(append(lines, export), "\n")+"\n")

	reversed := []string{lines[2], lines[1], lines[0], export}
	backward := convert(t, transform.Options{}, "page.js", strings.Join(reversed, "\n")+"\n")

	assert.Equal(t, 3, forward.Stats.ImportsRewritten)
	assert.Equal(t, 3, backward.Stats.ImportsRewritten)
	assert.Equal(t, 3, strings.Count(string(forward.Output), `} from "sanity";`)-1)
	assert.NotContains(t, string(backward.Output), "@sanity/")
}

func TestConvert_DoesNotRewrapDefineType(t *testing.T) {
	t.Parallel()

	src := "import {defineType} from \"sanity\"\nexport default defineType({name: \"page\", type: \"document\"})\n"

	result := convert(t, transform.Options{}, "page.ts", src)

	assert.Equal(t, transform.StatusConverted, result.Status)
	assert.Equal(t,
		"import {defineType} from \"sanity\"\nexport const page = defineType({name: \"page\", type: \"document\"})\n",
		string(result.Output))
}

func TestConvert_WrapsRootInsideHelperCall(t *testing.T) {
	t.Parallel()

	result := convert(t, transform.Options{}, "page.js", "export default helper({name: \"page\", type: \"document\"})\n")

	assert.Contains(t, string(result.Output),
		"export const page = helper(defineType({name: \"page\", type: \"document\"}))\n")
}

func TestConvert_NormalisesExportName(t *testing.T) {
	t.Parallel()

	result := convert(t, transform.Options{}, "post.jsx", "export default {name: \"blog-post\", type: \"document\"}\n")

	assert.Contains(t, string(result.Output), "export const blogPost = defineType(")
	assert.Equal(t, "blog-post", result.Schema)
}

func TestConvert_TypeScriptSource(t *testing.T) {
	t.Parallel()

	src := "const hidden: boolean = true\nexport default {name: \"page\", type: \"document\", hidden}\n"

	result := convert(t, transform.Options{}, "page.ts", src)

	assert.Equal(t, transform.StatusConverted, result.Status)
	assert.Contains(t, string(result.Output), "export const page = defineType({name: \"page\", type: \"document\", hidden})")
}

func TestConvert_TitleNameHeuristic(t *testing.T) {
	t.Parallel()

	src := "export default {title: \"Settings\", name: \"settings\", fields: [{name: \"logo\", title: \"Logo\"}]}\n"

	unchanged := convert(t, transform.Options{}, "settings.js", src)
	assert.Equal(t, transform.StatusUnchanged, unchanged.Status)

	result := convert(t, transform.Options{Heuristic: schema.HeuristicTitleName}, "settings.js", src)

	assert.Equal(t, transform.StatusConverted, result.Status)
	assert.Contains(t, string(result.Output),
		"export const settings = defineType({title: \"Settings\", name: \"settings\", fields: [defineField({name: \"logo\", title: \"Logo\"})]})")
}

func TestConvert_CustomFactories(t *testing.T) {
	t.Parallel()

	opts := transform.Options{TypeFactory: "schemaType", FieldFactory: "schemaField", FactorySource: "@acme/schema"}

	result := convert(t, opts, "page.js", pageSchema)

	assert.True(t, strings.HasPrefix(string(result.Output), "import {schemaField, schemaType} from \"@acme/schema\";\n"))
	assert.Equal(t, 2, strings.Count(string(result.Output), "schemaField("))
}

func TestPasses(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{
		transform.PassStripDeprecated,
		transform.PassPruneFieldTypes,
		transform.PassPruneFieldsets,
		transform.PassWrap,
		transform.PassExport,
		transform.PassRewriteImports,
		transform.PassInjectImports,
	}, transform.Passes())
}

func TestConvert_OutputParsesWithLineComments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		keep string
	}{
		{
			name: "comment on the last kept field",
			src: `export default {
  name: "page",
  type: "document",
  fields: [{name: "a", type: "string"}, // keep
    {name: "w", type: "legacyWidget"}],
}
`,
			keep: "// keep",
		},
		{
			name: "comment above the pruned field",
			src: `export default {
  name: "page",
  type: "document",
  fields: [{name: "a", type: "string"},
    // legacy
    {name: "w", type: "legacyWidget"}],
}
`,
			keep: "// legacy",
		},
		{
			name: "comment above the pruned fieldset",
			src: `export default {
  name: "post",
  type: "document",
  fieldsets: [{name: "seo"}, // groups
    {name: "legacy"}],
  fields: [
    {name: "title", type: "string", fieldset: "seo"},
    {name: "w", type: "legacyWidget", fieldset: "legacy"},
  ],
}
`,
			keep: "// groups",
		},
		{
			name: "comment above the stripped attribute",
			src: `export default {
  name: "page",
  type: "document", // actions
  __experimental_actions: ["update"]}
`,
			keep: "// actions",
		},
		{
			name: "comment above the pruned property value",
			src: `export default {
  name: "page",
  type: "document", // preview
  preview: {name: "w", type: "legacyWidget"}}
`,
			keep: "// preview",
		},
	}

	parser := syntax.NewParser()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			opts := transform.DefaultOptions()
			opts.Exclude = transform.NewExclusionSet("legacyWidget")

			result := convert(t, opts, "page.js", tc.src)
			out := string(result.Output)

			assert.Equal(t, transform.StatusConverted, result.Status)
			assert.Contains(t, out, tc.keep+"\n")
			assert.NotContains(t, out, "legacyWidget")
			assert.NotContains(t, out, "__experimental_actions")

			_, err := parser.Parse(context.Background(), "page.js", result.Output)
			require.NoError(t, err, out)
		})
	}
}

func TestConvert_ExportNameAvoidsExistingBindings(t *testing.T) {
	t.Parallel()

	const root = "export default {name: \"page\", type: \"document\"}\n"

	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "default import", prefix: "import page from \"./page\"\n", want: "pageType"},
		{name: "namespace import", prefix: "import * as page from \"./page\"\n", want: "pageType"},
		{name: "named import", prefix: "import {page} from \"./page\"\n", want: "pageType"},
		{name: "aliased import", prefix: "import {page as other} from \"./page\"\n", want: "page"},
		{name: "const", prefix: "const page = 1\n", want: "pageType"},
		{name: "destructured", prefix: "const {page} = helpers\n", want: "pageType"},
		{name: "function", prefix: "function page() {}\n", want: "pageType"},
		{name: "exported class", prefix: "export class page {}\n", want: "pageType"},
		{name: "suffix taken", prefix: "import page from \"./page\"\nconst pageType = 1\n", want: "pageType2"},
		{name: "unrelated", prefix: "const other = 1\n", want: "page"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := convert(t, transform.Options{}, "page.js", tc.prefix+root)
			out := string(result.Output)

			assert.Contains(t, out, "export const "+tc.want+" = defineType(")
			assert.Equal(t, "page", result.Schema)

			_, err := syntax.NewParser().Parse(context.Background(), "page.js", result.Output)
			require.NoError(t, err, out)
		})
	}
}

func TestConvert_ExportNameAvoidsFactoryImport(t *testing.T) {
	t.Parallel()

	result := convert(t, transform.Options{}, "type.js", "export default {name: \"defineType\", type: \"document\"}\n")

	assert.Contains(t, string(result.Output), "export const defineTypeType = defineType(")
}

func TestConvert_LastDuplicateNameWins(t *testing.T) {
	t.Parallel()

	result := convert(t, transform.Options{}, "page.js", "export default {name: \"a\", type: \"document\", name: \"b\"}\n")

	assert.Contains(t, string(result.Output), "export const b = defineType(")
	assert.Equal(t, "b", result.Schema)
}
