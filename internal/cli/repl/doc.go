// Package repl provides the interactive mode of respkv-cli.
//
// Lines are split into arguments like a shell: whitespace separates
// arguments, and single or double quotes group them. Double-quoted strings
// accept \n, \r, \t, \", \\ and \xHH escapes.
package repl
