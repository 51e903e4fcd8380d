// Package command defines the respkv-cli application.
//
// With arguments the CLI sends one command and prints the reply. Without
// arguments it starts an interactive session.
package command
