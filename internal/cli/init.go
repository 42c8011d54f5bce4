package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const starterManifest = `version: "1"

project:
  name: my-theme
  version: "0.1.0"
  author: ""
  homepage: ""

# Expanded when a run starts; Date and Year reflect the run time.
banner: |
  /*!
   * {{.Name}} v{{.Version}} ({{.Date}})
   * Copyright (c) {{.Year}} {{.Author}}
   */

paths:
  source: assets
  dest: public

livereload:
  enabled: true
  addr: ":35729"

# External tools become capabilities; commands are templates expanded with
# .Src (matched files), .Dest, .Banner and .Options.
tools:
  sass:
    description: "Compile SCSS to CSS"
    command: "sass {{.Src}} {{.Dest}}"
  cssmin:
    description: "Minify CSS in place"
    command: "cleancss -O2 --batch {{.Src}}"
  browserify:
    description: "Bundle JS modules"
    command: "browserify {{.Src}} -o {{.Dest}}"
  uglify:
    description: "Minify JS in place"
    command: "for f in {{.Src}}; do uglifyjs \"$f\" -c -m -o \"$f\"; done"
  handlebars:
    description: "Precompile templates"
    command: "handlebars {{.Src}} -f {{.Dest}}"

tasks:
  clean:
    description: "Remove generated assets"
    capability: clean
    src:
      - "**/*"
  copy-templates:
    description: "Copy template sources into the dest tree"
    capability: copy
    src:
      - "templates/**/*.hbs"
  compile-templates:
    description: "Precompile copied templates"
    capability: handlebars
    from: dest
    src:
      - "templates/**/*.hbs"
    dest: "js/templates.js"
  compile-styles:
    description: "Compile SCSS"
    capability: sass
    src:
      - "scss/main.scss"
    dest: "css/main.css"
  minify-styles:
    description: "Minify generated CSS"
    capability: cssmin
    from: dest
    src:
      - "css/*.css"
  bundle-scripts:
    description: "Bundle JS entry point"
    capability: browserify
    src:
      - "js/index.js"
    dest: "js/bundle.js"
  minify-scripts:
    description: "Minify generated JS"
    capability: uglify
    from: dest
    src:
      - "js/*.js"
  watch:
    description: "Watch sources and re-run tasks on change"
    capability: watch

pipelines:
  default:
    description: "Full build, then watch"
    steps:
      - clean
      - templates
      - styles
      - scripts
      - watch
  templates:
    steps:
      - copy-templates
      - compile-templates
  styles:
    steps:
      - compile-styles
      - minify-styles
  scripts:
    steps:
      - bundle-scripts
      - minify-scripts

watch:
  styles:
    globs:
      - "assets/scss/**/*.scss"
    tasks:
      - styles
    livereload: true
  scripts:
    globs:
      - "assets/js/**/*.js"
    tasks:
      - scripts
    livereload: true
  templates:
    globs:
      - "assets/templates/**/*.hbs"
    tasks:
      - templates
    livereload: true
`

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targetPath := "./assetpipe.yaml"

			if _, err := os.Stat(targetPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", targetPath)
			}

			if err := os.WriteFile(targetPath, []byte(starterManifest), 0644); err != nil {
				return fmt.Errorf("failed to create manifest: %w", err)
			}

			fmt.Printf("Created %s\n", targetPath)
			fmt.Println("Edit the tools and tasks to match your project, then run 'assetpipe run'.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing manifest")
	return cmd
}
