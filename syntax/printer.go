package syntax

import "strings"

// Print renders cmd back into a canonical textual form, reading word
// literals out of line. The result is equivalent to the original input
// under the grammar (associativity of ';' and '|' is already fixed by the
// parser), which is what makes the parse/print round trip testable: two
// inputs that parse to the same tree shape print identically.
func Print(cmd Command, line string) string {
	var sb strings.Builder
	printCommand(&sb, cmd, line)
	return sb.String()
}

func printCommand(sb *strings.Builder, cmd Command, line string) {
	switch c := cmd.(type) {
	case nil:
	case *Exec:
		for i, w := range c.Argv {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(w.Lit(line))
		}
	case *Redir:
		printCommand(sb, c.Inner, line)
		sb.WriteByte(' ')
		sb.WriteString(c.Op.String())
		sb.WriteByte(' ')
		sb.WriteString(c.Path.Lit(line))
	case *Pipe:
		printCommand(sb, c.Left, line)
		sb.WriteString(" | ")
		printCommand(sb, c.Right, line)
	case *List:
		printCommand(sb, c.Left, line)
		sb.WriteString(" ; ")
		printCommand(sb, c.Right, line)
	case *Back:
		printCommand(sb, c.Inner, line)
		sb.WriteString(" &")
	case *Subshell:
		sb.WriteByte('(')
		printCommand(sb, c.Inner, line)
		sb.WriteByte(')')
	default:
		panic("syntax: unhandled command node in Print")
	}
}
