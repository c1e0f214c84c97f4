// Package main is the textwarden command line client.
//
// Commands:
//   - check: analyse files, globs or stdin and print underlined issues;
//     --apply-all writes every applicable suggestion back
//   - watch: re-analyse a text file after each save, once the quiet period passes
//
// By default the model is called directly with TEXTWARDEN_API_KEY (or the
// apiKey from the settings file). --proxy URL routes calls through a
// TextWarden proxy server instead.
//
// Usage:
//
//	textwarden check README.md "docs/**/*.md"
//	cat draft.txt | textwarden check --apply-all - > fixed.txt
//	textwarden watch --quiet 2s notes.txt
package main
