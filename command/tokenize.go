package command

import "strings"

// Tokenize splits a typed line into alias and arguments. A leading slash is
// optional.
func Tokenize(line string) (string, []string) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))

	if len(fields) == 0 {
		return "", []string{}
	}

	return fields[0], fields[1:]
}

// TokenizePartial keeps a trailing empty argument when the line ends in
// whitespace, so "pardon " completes the first argument. The bool reports
// whether the alias itself is still being typed.
func TokenizePartial(line string) (string, []string, bool) {
	line = strings.TrimLeft(line, " \t")
	line = strings.TrimPrefix(line, "/")
	fields := strings.Fields(line)

	if len(fields) == 0 {
		return "", []string{}, true
	}

	trailing := strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t")

	if len(fields) == 1 && !trailing {
		return fields[0], []string{}, true
	}

	args := fields[1:]

	if trailing {
		args = append(args, "")
	}

	return fields[0], args, false
}
