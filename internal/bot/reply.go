package bot

// DownloadData is the selection payload of the "download store" option.
const DownloadData = "senddb"

// Option is one selectable choice presented with a reply.
type Option struct {
	Label string
	Data  string
}

// Document is a file delivered to the actor.
type Document struct {
	Name string
	Data []byte
}

// Reply is what the transport sends back for one unit of work.
type Reply struct {
	Text     string
	HTML     bool
	Options  []Option
	Document *Document
}

func textReply(text string) Reply {
	return Reply{Text: text}
}
