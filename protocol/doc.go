// Package protocol implements parsing and serialising of the payloads the
// lockdown teacher and student exchange.
//
// This protocol aims to be
//
// - easy to implement from any language with a JSON library
// - one request and one response per connection
// - human readable
//
// - `Envelope` - A single message from a controller (teacher) to a student.
// - `Kind`     - What the envelope asks the student to do.
// - `Response` - The single line the student sends back.
//
// === General Syntax
//
// - every message is exactly one line terminated by `\n`
// - a request line is a JSON object, a response line is plain text
// - after the response line the student closes the connection
//
// For example
//   ```
//     > {"type":"StartSession","sender":"TeacherConsole","content":"Start lockdown session","timestampUtc":"2025-12-13T00:00:00Z"}\n
//     < OK: Session started\n
//   ```
//
// === Envelope fields
//
// Field names are matched case-insensitively when decoding.
//
// - `type` (or `kind`) - one of Hello, StatusUpdate, Command, StartSession,
//                        EndSession. Names are case-insensitive, the numeric
//                        ordinal (0-4) is accepted too.
// - `sender`           - free text, defaults to ""
// - `content`          - free text, defaults to ""
// - `timestampUtc`     - RFC 3339 time, defaults to the time of decoding
//
// A `Command` envelope whose content is `StartSession` or `EndSession` (any
// casing) is treated as that kind. See Envelope.NormalizedKind.
//
// === Responses
//
//   ```
//     < OK: <description>\n
//     < ERROR: <description>\n
//   ```
//
// Where `<description>` is a human readable string. Responses are opaque to
// clients, ParseResponse exists for convenience only.
//
// === Errors
//
//   ```
//     ERROR: Empty message
//     ERROR: Null message
//     ERROR: Invalid JSON (<detail>)
//     ERROR: Unsupported message type <Kind>
//   ```
//
package protocol
