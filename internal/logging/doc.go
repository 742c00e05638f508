// Package logging provides structured JSON logging with size-based file
// rotation for openmc-assist.
//
// CLI commands log to stderr at info level. With --debug, logs are also
// written to ~/.openmc-assist/logs/assist.log at debug level. The MCP server
// mode logs to the file only, since stdout carries the protocol stream.
package logging
