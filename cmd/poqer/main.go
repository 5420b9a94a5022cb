// Command poqer is a line-at-a-time REPL over the scanner and parser: it
// prints a "?- " prompt, reads one line, parses it as a single clause,
// and reports "okay" or the syntax error. It takes no flags.
//
// Grounded on original_source/src/pq_main.c's REPL loop (prompt text,
// read-parse-report shape) and cbarrick-ripl's test/lex.go and
// test/parse.go (the teacher's own read-next-token/read-next-clause
// harnesses), with github.com/chzyer/readline standing in for the
// teacher's bare os.Stdin scanning to give this binary line editing and
// history, the way other grammar-tool REPLs in the example pack do.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"

	"github.com/cbarrick/poqer/oper"
	"github.com/cbarrick/poqer/parse"
)

func main() {
	os.Exit(run())
}

func run() int {
	rl, err := readline.New("?- ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rl.Close()

	ops := oper.Default()
	p := parse.NewParser(ops)

	for {
		line, err := rl.Readline()
		switch err {
		case nil:
			// fall through to parse the line
		case readline.ErrInterrupt:
			continue
		case io.EOF:
			return 0
		default:
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		if err := p.SetBuffer([]byte(line)); err != nil {
			fmt.Println(err)
			continue
		}
		if _, err := p.ReadTerm(); err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println("okay")
	}
}
