// Package help holds the built-in language reference printed by `lox help`.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/thomasrohde/treelox/pkg/diagnostics"
)

// QUICKREF is the overview shown by `lox help` with no topic.
const QUICKREF = `Lox quick reference (v0.3)

Programs are statements run top to bottom:
  var name = expr;     declare in the current scope
  name = expr;         assign to the nearest declaration
  print expr;          write the value and a newline
  { ... }              new scope, dropped when the block ends
  if (cond) s else s   any value but nil and false is truthy

Values: nil, true/false, numbers, "strings".

Topics: syntax, values, scoping, diagnostics, cli, examples
Run 'lox help <topic>' for details. Topics match by prefix.
`

// TopicList is the display order of the topics.
var TopicList = []string{"syntax", "values", "scoping", "diagnostics", "cli", "examples"}

// Topics maps a topic name to its text.
var Topics = map[string]string{
	"syntax": `Statements
  var x;  var x = 1;  x = 2;  print x;  expr;
  { stmts }  if (cond) stmt  if (cond) stmt else stmt

Expressions, loosest to tightest
  =              right-associative, target must be a variable
  or  and        return the deciding operand
  == !=
  < <= > >=
  + -
  * /
  ! -            prefix
  literals, names, ( expr )

Comments run from // to the end of the line.
The words class, fun, for, return, super, this and while are reserved.`,

	"values": `nil      the absent value, prints as nil
true     booleans
1.5      numbers are 64-bit floats; integral values print without ".0"
"text"   strings have no escapes and may span lines

Truthiness: nil and false are falsey, everything else (0 and "" too) is truthy.
Equality never faults: values of different kinds are simply unequal.
+ adds two numbers or joins two strings; mixing them is a type mismatch.
x / y faults when y rounds to 0, so 1 / 0.4 is an error but 1 / 0.5 is 2.`,

	"scoping": `Each block opens a scope. A var inside it shadows outer names until the
block ends, even when the block ends with an error.

  var a = "outer";
  { var a = "inner"; print a; }   // inner
  print a;                        // outer

Assignment updates the nearest scope that declares the name. Reading or
assigning a name no scope declares is an UndefinedVariable error.
Declaring a name twice in the same scope replaces it.`,

	"diagnostics": "",

	"cli": `lox run <file|->        execute a script (--trace FILE writes NDJSON events)
lox check <file>        syntax errors and scope warnings, nothing runs
lox fmt <file> [-w]     canonical layout (comments are dropped)
lox ast <file|->        parenthesized syntax tree
lox repl                interactive session (:env :reset :help :quit)
lox trace <file>        summarize a trace (--text for a table)
lox help [topic]        this reference

Global flags: --config FILE, --log-level LEVEL, --pretty, --json.
Exit codes: 0 ok, 64 usage, 65 syntax, 66 input, 70 runtime fault, 78 config.`,

	"examples": `var greeting = "hello";
{
  var greeting = greeting + ", world";
  print greeting;          // hello, world
}
print greeting;            // hello

var n = 3;
if (n > 2 and n != 4) print "big"; else print "small";

print 1 / 0;               // Cannot perform division by zero. [line 11]`,
}

// codeDescriptions documents every diagnostic code.
var codeDescriptions = map[string]string{
	diagnostics.ELex:               "the source contains an invalid character or an unterminated string",
	diagnostics.EParse:             "the tokens do not form a valid statement",
	diagnostics.ETypeMismatch:      "an operator got operands of the wrong kind",
	diagnostics.EDivisionByZero:    "the divisor of / rounds to zero",
	diagnostics.EUndefinedVariable: "a name was read or assigned before any scope declared it",
	diagnostics.EIO:                "a file could not be read or written",
	diagnostics.EConfig:            "the configuration file or a flag is invalid",
	diagnostics.WUndeclared:        "check: a name is used that no enclosing scope declares",
	diagnostics.WShadow:            "check: a block declares a name an outer scope already has",
}

func init() {
	Topics["diagnostics"] = DiagnosticIndex()
}

// DiagnosticIndex lists every diagnostic code with a short description.
func DiagnosticIndex() string {
	codes := lo.Keys(codeDescriptions)
	sort.Strings(codes)

	var b strings.Builder
	for _, code := range codes {
		fmt.Fprintf(&b, "%-22s %s\n", code, codeDescriptions[code])
	}
	fmt.Fprintf(&b, "Total: %d codes", len(codes))
	return b.String()
}

// MatchTopic finds a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	matches := lo.Filter(TopicList, func(name string, _ int) bool {
		return query != "" && strings.HasPrefix(name, query)
	})
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", errors.Errorf("unknown help topic %q; topics: %s", query, strings.Join(TopicList, ", "))
	}
	return "", "", errors.Errorf("help topic %q is ambiguous: %s", query, strings.Join(matches, ", "))
}
