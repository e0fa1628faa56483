package bot

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/keeperbot/internal/logging"
	"github.com/dmitrijs2005/keeperbot/internal/match"
	"github.com/dmitrijs2005/keeperbot/internal/registry"
	"github.com/dmitrijs2005/keeperbot/internal/remote"
	"github.com/dmitrijs2005/keeperbot/internal/session"
	"github.com/dmitrijs2005/keeperbot/internal/syncer"
	"github.com/dmitrijs2005/keeperbot/internal/vault"
)

// DefaultResultLimit caps the options offered for one result list.
const DefaultResultLimit = 5

// Router turns actor input into replies.
type Router struct {
	gate     *Gate
	service  *StoreService
	sessions *session.Store
	results  *registry.Registry
	limit    int
	logger   logging.Logger
}

func NewRouter(gate *Gate, service *StoreService, sessions *session.Store, results *registry.Registry, limit int, logger logging.Logger) *Router {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	return &Router{
		gate:     gate,
		service:  service,
		sessions: sessions,
		results:  results,
		limit:    limit,
		logger:   logger,
	}
}

// HandleCommand handles a slash command; name comes without the slash.
func (r *Router) HandleCommand(ctx context.Context, actor int64, name string) Reply {
	if !r.gate.Authorize(actor) {
		return r.deny(ctx, actor)
	}
	log := r.logger.With("actor", actor)
	log.Debug(ctx, "command", "name", name)

	switch name {
	case "start":
		r.sessions.Set(actor, session.Idle)
		return Reply{
			Text:    msgStart,
			Options: []Option{{Label: msgDownloadLabel, Data: DownloadData}},
		}
	case "help":
		return textReply(msgHelp)
	case "add":
		r.sessions.Set(actor, session.AwaitingAdd)
		return textReply(msgAddPrompt)
	case "delete":
		r.sessions.Set(actor, session.AwaitingDelete)
		return textReply(msgDeletePrompt)
	case "cancel":
		if r.sessions.Take(actor) == session.Idle {
			return textReply(msgNothingToStop)
		}
		return textReply(msgCancelled)
	case "groups":
		groups, err := r.service.Groups(ctx)
		if err != nil {
			return r.failure(ctx, log, "list groups", err)
		}
		if len(groups) == 0 {
			return textReply(msgNoGroups)
		}
		return textReply(msgGroups(groups))
	default:
		return textReply(msgUnknownCommand)
	}
}

// HandleText handles free text according to the actor's session mode.
// Awaiting modes are consumed by this call whatever the outcome.
func (r *Router) HandleText(ctx context.Context, actor int64, text string) Reply {
	if !r.gate.Authorize(actor) {
		return r.deny(ctx, actor)
	}
	log := r.logger.With("actor", actor)

	switch r.sessions.Take(actor) {
	case session.AwaitingAdd:
		return r.add(ctx, log, text)
	case session.AwaitingDelete:
		return r.list(ctx, log, actor, registry.DeleteCandidates, text)
	default:
		return r.list(ctx, log, actor, registry.SearchResults, text)
	}
}

// HandleSelection handles an option chosen from an earlier reply.
func (r *Router) HandleSelection(ctx context.Context, actor int64, data string) Reply {
	if !r.gate.Authorize(actor) {
		return r.deny(ctx, actor)
	}
	log := r.logger.With("actor", actor)

	// Touch the session so an idle timeout drops the result set before
	// the token is resolved.
	r.sessions.Mode(actor)

	if data == DownloadData {
		doc, err := r.service.Snapshot(ctx)
		if err != nil {
			return r.failure(ctx, log, "download store", err)
		}
		log.Info(ctx, "store downloaded", "bytes", len(doc.Data))
		return Reply{Document: doc}
	}

	token, err := registry.ParseToken(data)
	if err != nil {
		log.Debug(ctx, "unparsable selection", "error", err)
		return textReply(msgExpired)
	}

	item, ok := r.results.Resolve(actor, token.Kind, token)
	if !ok {
		log.Debug(ctx, "stale selection", "token", data)
		return textReply(msgExpired)
	}

	switch token.Kind {
	case registry.DeleteCandidates:
		e, found, err := r.service.Delete(ctx, item.ID)
		if err != nil {
			return r.failure(ctx, log, "delete entry", err)
		}
		r.results.Clear(actor, registry.DeleteCandidates)
		if !found {
			return textReply(msgAlreadyDeleted)
		}
		log.Info(ctx, "entry deleted", "entry", e.ID)
		return textReply(msgDeleted(e))
	default:
		e, found, err := r.service.Get(ctx, item.ID)
		if err != nil {
			return r.failure(ctx, log, "show entry", err)
		}
		if !found {
			return textReply(msgAlreadyDeleted)
		}
		return Reply{Text: entryDetails(e), HTML: true}
	}
}

func (r *Router) add(ctx context.Context, log logging.Logger, text string) Reply {
	in, err := ParseAddInput(text)
	if err != nil {
		return textReply(msgBadInput(err))
	}

	e, err := r.service.Add(ctx, in)
	if err != nil {
		return r.failure(ctx, log, "add entry", err)
	}
	log.Info(ctx, "entry added", "entry", e.ID, "group", e.Group)
	return textReply(msgAdded(e))
}

// list searches and publishes the hits as a result set of the given kind.
// Nothing is published when there are no hits.
func (r *Router) list(ctx context.Context, log logging.Logger, actor int64, kind registry.Kind, text string) Reply {
	if match.Normalize(text) == "" {
		return textReply(msgEmptyQuery)
	}

	found, err := r.service.Search(ctx, text)
	if err != nil {
		return r.failure(ctx, log, "search", err)
	}
	if len(found) == 0 {
		return textReply(msgNothingFound)
	}

	shown := found
	if len(shown) > r.limit {
		shown = shown[:r.limit]
	}

	items := make([]registry.Item, len(shown))
	for i, e := range shown {
		items[i] = registry.Item{ID: e.ID, Title: e.Title}
	}
	tokens := r.results.Publish(actor, kind, items)

	options := make([]Option, len(shown))
	for i, e := range shown {
		options[i] = Option{Label: optionLabel(e), Data: tokens[i].String()}
	}

	header := msgSearchHeader
	if kind == registry.DeleteCandidates {
		header = msgDeleteHeader
	}
	if n := len(found) - len(shown); n > 0 {
		header += "\n" + msgMore(n)
	}
	return Reply{Text: header, Options: options}
}

func optionLabel(e EntryView) string {
	if e.Username == "" {
		return clip(e.Title, maxLabelLen)
	}
	return clip(e.Title+" ("+e.Username+")", maxLabelLen)
}

func (r *Router) deny(ctx context.Context, actor int64) Reply {
	r.logger.Warn(ctx, "access denied", "actor", actor)
	return textReply(msgAccessDenied)
}

// failure logs err and maps it to a reply the actor can act on.
func (r *Router) failure(ctx context.Context, log logging.Logger, op string, err error) Reply {
	log.Error(ctx, op+" failed", "error", err)

	var divergence *DivergenceError
	if errors.As(err, &divergence) {
		return textReply(msgDiverged)
	}

	var syncErr *syncer.SyncError
	if errors.As(err, &syncErr) {
		switch {
		case syncErr.Op == syncer.OpPush:
			return textReply(msgPushFailed)
		case errors.Is(err, remote.ErrNotFound):
			return textReply(msgNoRemote)
		default:
			return textReply(msgPullFailed)
		}
	}

	switch {
	case errors.Is(err, vault.ErrWrongSecret):
		return textReply(msgWrongSecret)
	case errors.Is(err, vault.ErrCorrupt):
		return textReply(msgCorrupt)
	case errors.Is(err, vault.ErrMissing):
		return textReply(msgMissing)
	case errors.Is(err, ErrParse):
		return textReply(msgBadInput(err))
	}

	return textReply(msgInternal)
}
