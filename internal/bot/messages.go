package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf16"
)

// maxMessageLen is the Bot API limit for one text message, in UTF-16 units.
const maxMessageLen = 4096

// Field budgets for entry details. Their sum leaves room for the labels.
const (
	maxTitleLen  = 256
	maxNameLen   = 256
	maxSecretLen = 1024
	maxNotesLen  = 2048
	maxGroupLen  = 256
	maxLabelLen  = 64
)

const (
	msgAccessDenied   = "Access denied."
	msgUnknownCommand = "Unknown command. Send /help for the list of commands."
	msgAddPrompt      = "Send the new entry as:\n" + AddFormat + "\n" + msgPipeNote
	msgPipeNote       = "Fields are separated by '|', so no field can contain '|'."
	msgDeletePrompt   = "Send a search phrase for the entry to delete."
	msgCancelled      = "Cancelled."
	msgNothingToStop  = "Nothing to cancel."
	msgNothingFound   = "Nothing found."
	msgEmptyQuery     = "Send a word to search for."
	msgExpired        = "This selection has expired. Search again."
	msgAlreadyDeleted = "Entry already deleted or not found."
	msgNoGroups       = "There are no groups yet."
	msgSearchHeader   = "Found entries:"
	msgDeleteHeader   = "Select the entry to delete:"
	msgDownloadLabel  = "Download store"

	msgPullFailed  = "Could not fetch the store from remote storage. Nothing was changed."
	msgPushFailed  = "Could not upload the store to remote storage."
	msgDiverged    = "The change was saved locally but could not be uploaded. The remote copy is out of date."
	msgWrongSecret = "The store could not be opened: wrong master password."
	msgCorrupt     = "The store could not be opened: the file is damaged."
	msgMissing     = "The store file does not exist."
	msgNoRemote    = "There is no store in remote storage yet."
	msgInternal    = "Something went wrong. Please try again."
)

const msgStart = "Hi! Send any word to search the store.\n\n" + msgHelp

const msgHelp = `Commands:
/add - add an entry
/delete - delete an entry
/groups - list groups
/cancel - cancel the current action
/help - show this help

Entry format for /add:
` + AddFormat + "\n" + msgPipeNote

func msgBadInput(err error) string {
	return fmt.Sprintf("Could not add the entry: %v.\nExpected format:\n%s\n%s", err, AddFormat, msgPipeNote)
}

func msgAdded(e EntryView) string {
	return fmt.Sprintf("Added %q to %s.", clip(e.Title, maxTitleLen), clip(e.Group, maxGroupLen))
}

func msgDeleted(e EntryView) string {
	return fmt.Sprintf("Deleted %q.", clip(e.Title, maxTitleLen))
}

func msgMore(n int) string {
	return fmt.Sprintf("...and %d more. Refine the search to see them.", n)
}

func msgGroups(groups []string) string {
	var b strings.Builder
	b.WriteString("Groups:")
	used := utf16Len("Groups:")
	for i, g := range groups {
		line := "\n- " + clip(g, maxGroupLen)
		// keep room for the "more" line
		if used+utf16Len(line) > maxMessageLen-64 {
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("...and %d more.", len(groups)-i))
			break
		}
		b.WriteString(line)
		used += utf16Len(line)
	}
	return b.String()
}

// entryDetails renders an entry as HTML. Every field is escaped and
// clipped so the message stays within maxMessageLen.
func entryDetails(e EntryView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", escapeClip(e.Title, maxTitleLen))
	fmt.Fprintf(&b, "Username: <code>%s</code>\n", escapeClip(e.Username, maxNameLen))
	fmt.Fprintf(&b, "Password: <code>%s</code>", escapeClip(e.Secret, maxSecretLen))
	if e.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", escapeClip(e.Notes, maxNotesLen))
	}
	fmt.Fprintf(&b, "\nGroup: %s", escapeClip(e.Group, maxGroupLen))
	return b.String()
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// clip cuts s to at most n UTF-16 units, marking a cut with an ellipsis.
func clip(s string, n int) string {
	if utf16Len(s) <= n {
		return s
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := utf16.RuneLen(r)
		if used+w > n-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	b.WriteRune('…')
	return b.String()
}

// escapeClip escapes s for HTML and clips the result without splitting
// an entity.
func escapeClip(s string, n int) string {
	esc := html.EscapeString(s)
	if utf16Len(esc) <= n {
		return esc
	}
	out := strings.TrimSuffix(clip(esc, n), "…")
	if i := strings.LastIndexByte(out, '&'); i >= 0 && !strings.Contains(out[i:], ";") {
		out = out[:i]
	}
	return out + "…"
}
