// Package commitmsg synthesizes the default commit subject, body, and
// "--- Inventory Operations ---" footer (C8), grounded on
// original_source/onyo/lib/onyo.py's
// Repo._generate_commit_message_subject three-tier fallback ladder.
package commitmsg

import (
	"fmt"
	"strings"

	"github.com/psyinfra/onyo-go/internal/transaction"
)

// subjectBudget is the target maximum subject length before falling
// back to a shorter form; spec.md §4.8 calls for "bounded to ~80
// characters".
const subjectBudget = 80

const footerHeader = "--- Inventory Operations ---"

// SubjectInput describes the operation a command performed, used to
// synthesize a default commit subject when the caller supplies no
// message of their own.
type SubjectInput struct {
	Command string   // e.g. "new", "set", "mv", "rm"
	Paths   []string // repository-relative target paths, in commit order
	Keys    []string // optional: keys touched, for commands like set/unset
	Dst     string    // optional: single destination, for mv/rename-style commands
}

// Subject synthesizes the default commit subject using the three-tier
// fallback: full paths, then leaf names, then "<type> (count)" groups.
func Subject(in SubjectInput) string {
	n := len(in.Paths)

	long := buildSubject(in.Command, n, in.Keys, in.Paths, in.Dst)
	if len(long) <= subjectBudget {
		return long
	}

	leaves := make([]string, len(in.Paths))
	for i, p := range in.Paths {
		leaves[i] = leafOf(p)
	}
	medium := buildSubject(in.Command, n, in.Keys, leaves, leafOf(in.Dst))
	if len(medium) <= subjectBudget {
		return medium
	}

	return groupedSubject(in.Command, n, in.Paths)
}

func buildSubject(cmd string, n int, keys []string, paths []string, dst string) string {
	header := fmt.Sprintf("%s [%d]", cmd, n)
	if len(keys) > 0 {
		header += "(" + strings.Join(keys, ",") + ")"
	}
	quoted := make([]string, len(paths))
	for i, p := range paths {
		quoted[i] = "'" + p + "'"
	}
	subject := header + ": " + strings.Join(quoted, ",")
	if dst != "" {
		subject += " -> '" + dst + "'"
	}
	return subject
}

// groupedSubject is the final fallback tier: paths are collapsed to
// "<type> (count)" groups keyed by the first underscore-delimited
// segment of each leaf name (the asset's type).
func groupedSubject(cmd string, n int, paths []string) string {
	order := []string{}
	counts := map[string]int{}
	for _, p := range paths {
		t := typeOf(leafOf(p))
		if _, ok := counts[t]; !ok {
			order = append(order, t)
		}
		counts[t]++
	}
	groups := make([]string, len(order))
	for i, t := range order {
		groups[i] = fmt.Sprintf("%s (%d)", t, counts[t])
	}
	return fmt.Sprintf("%s [%d]: %s", cmd, n, strings.Join(groups, ", "))
}

func leafOf(p string) string {
	if p == "" {
		return ""
	}
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func typeOf(leaf string) string {
	if i := strings.IndexByte(leaf, '_'); i >= 0 {
		return leaf[:i]
	}
	return leaf
}

// Footer renders the "--- Inventory Operations ---" section from a
// transaction's recorded operations. Returns "" if the transaction
// staged nothing.
func Footer(tx *transaction.Transaction) string {
	sections := tx.FooterSections()
	if len(sections) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(footerHeader)
	for _, s := range sections {
		sb.WriteString("\n" + s.Title)
		for _, line := range s.Lines {
			sb.WriteString("\n- " + line)
		}
	}
	return sb.String()
}

// Synthesize builds the full commit message. If userMessage is
// non-empty, its first paragraph becomes the subject and any remaining
// paragraphs become the body instead of the synthesized subject; the
// footer is always appended.
func Synthesize(tx *transaction.Transaction, in SubjectInput, userMessage string) string {
	var subject, body string
	if strings.TrimSpace(userMessage) != "" {
		parts := strings.SplitN(strings.TrimSpace(userMessage), "\n\n", 2)
		subject = parts[0]
		if len(parts) > 1 {
			body = strings.TrimSpace(parts[1])
		}
	} else {
		subject = Subject(in)
	}

	msg := subject
	if body != "" {
		msg += "\n\n" + body
	}
	if footer := Footer(tx); footer != "" {
		msg += "\n\n" + footer
	}
	return msg
}
