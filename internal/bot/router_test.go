package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/keeperbot/internal/logging"
	"github.com/dmitrijs2005/keeperbot/internal/registry"
	"github.com/dmitrijs2005/keeperbot/internal/session"
	"github.com/dmitrijs2005/keeperbot/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner    int64 = 42
	stranger int64 = 13
)

type routerFixture struct {
	*fixture
	router   *Router
	sessions *session.Store
	results  *registry.Registry
}

func newRouter(t *testing.T, limit int, fill func(v *vault.Vault)) *routerFixture {
	t.Helper()
	return newRouterWithIdle(t, limit, 0, fill)
}

func newRouterWithIdle(t *testing.T, limit int, idle time.Duration, fill func(v *vault.Vault)) *routerFixture {
	t.Helper()
	f := newFixture(t, true, nil, fill)
	sessions := session.NewStore(idle)
	results := registry.New()
	sessions.OnExpire = results.Forget
	return &routerFixture{
		fixture:  f,
		router:   NewRouter(NewGate([]int64{owner}), f.service, sessions, results, limit, logging.Discard()),
		sessions: sessions,
		results:  results,
	}
}

func mailEntries(v *vault.Vault) {
	v.AddEntry(nil, "Gmail", "alice", "pw1", "personal")
	v.AddEntry(nil, "GitHub", "alice", "pw2", "")
	v.AddEntry(nil, "Bank", "a.smith", "pw3", "mail reminders")
}

func TestRouter_DeniesStrangers(t *testing.T) {
	r := newRouter(t, 0, mailEntries)
	ctx := context.Background()

	assert.Equal(t, msgAccessDenied, r.router.HandleCommand(ctx, stranger, "add").Text)
	assert.Equal(t, msgAccessDenied, r.router.HandleText(ctx, stranger, "gmail").Text)
	assert.Equal(t, msgAccessDenied, r.router.HandleSelection(ctx, stranger, DownloadData).Text)
	assert.Equal(t, session.Idle, r.sessions.Mode(stranger))
}

func TestRouter_Commands(t *testing.T) {
	r := newRouter(t, 0, nil)
	ctx := context.Background()

	start := r.router.HandleCommand(ctx, owner, "start")
	assert.Equal(t, msgStart, start.Text)
	require.Len(t, start.Options, 1)
	assert.Equal(t, DownloadData, start.Options[0].Data)

	assert.Equal(t, msgHelp, r.router.HandleCommand(ctx, owner, "help").Text)
	assert.Equal(t, msgUnknownCommand, r.router.HandleCommand(ctx, owner, "frobnicate").Text)
	assert.Equal(t, msgNoGroups, r.router.HandleCommand(ctx, owner, "groups").Text)

	assert.Equal(t, msgAddPrompt, r.router.HandleCommand(ctx, owner, "add").Text)
	assert.Equal(t, session.AwaitingAdd, r.sessions.Mode(owner))
	assert.Equal(t, msgCancelled, r.router.HandleCommand(ctx, owner, "cancel").Text)
	assert.Equal(t, session.Idle, r.sessions.Mode(owner))
	assert.Equal(t, msgNothingToStop, r.router.HandleCommand(ctx, owner, "cancel").Text)

	assert.Equal(t, msgDeletePrompt, r.router.HandleCommand(ctx, owner, "delete").Text)
	assert.Equal(t, session.AwaitingDelete, r.sessions.Mode(owner))
}

func TestRouter_AddToRoot(t *testing.T) {
	r := newRouter(t, 0, nil)
	ctx := context.Background()

	r.router.HandleCommand(ctx, owner, "add")
	reply := r.router.HandleText(ctx, owner, "title|alice|s3cr3t")
	assert.Equal(t, `Added "title" to Root.`, reply.Text)
	assert.Equal(t, session.Idle, r.sessions.Mode(owner))

	found, err := r.service.Search(ctx, "title")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alice", found[0].Username)
	assert.Equal(t, vault.RootGroupName, found[0].Group)
}

func TestRouter_AddCreatesGroupAndListsIt(t *testing.T) {
	r := newRouter(t, 0, nil)
	ctx := context.Background()

	r.router.HandleCommand(ctx, owner, "add")
	reply := r.router.HandleText(ctx, owner, "GitHub | bob | pw | | Work")
	assert.Equal(t, `Added "GitHub" to Work.`, reply.Text)

	assert.Equal(t, msgGroups([]string{"Work"}), r.router.HandleCommand(ctx, owner, "groups").Text)
}

func TestRouter_BadAddInputResetsState(t *testing.T) {
	r := newRouter(t, 0, mailEntries)
	ctx := context.Background()
	puts := r.mem.Puts()

	r.router.HandleCommand(ctx, owner, "add")
	reply := r.router.HandleText(ctx, owner, "only|two")
	assert.Contains(t, reply.Text, AddFormat)
	assert.Equal(t, session.Idle, r.sessions.Mode(owner))
	assert.Equal(t, puts, r.mem.Puts())

	// The next text is a plain search again.
	reply = r.router.HandleText(ctx, owner, "gmail")
	require.Len(t, reply.Options, 1)
	assert.Equal(t, "Gmail (alice)", reply.Options[0].Label)
}

func TestRouter_AddErrorResetsState(t *testing.T) {
	r := newRouter(t, 0, nil)
	ctx := context.Background()
	r.store.getErr = errors.New("network down")

	r.router.HandleCommand(ctx, owner, "add")
	reply := r.router.HandleText(ctx, owner, "a|b|c")
	assert.Equal(t, msgPullFailed, reply.Text)
	assert.Equal(t, session.Idle, r.sessions.Mode(owner))
}

func TestRouter_SearchAndShow(t *testing.T) {
	r := newRouter(t, 0, mailEntries)
	ctx := context.Background()

	reply := r.router.HandleText(ctx, owner, "MAIL!")
	assert.Equal(t, msgSearchHeader, reply.Text)
	require.Len(t, reply.Options, 2)
	assert.Equal(t, "Gmail (alice)", reply.Options[0].Label)
	assert.Equal(t, "Bank (a.smith)", reply.Options[1].Label)

	shown := r.router.HandleSelection(ctx, owner, reply.Options[1].Data)
	assert.True(t, shown.HTML)
	assert.Contains(t, shown.Text, "<b>Bank</b>")
	assert.Contains(t, shown.Text, "<code>pw3</code>")
	assert.Contains(t, shown.Text, "mail reminders")

	// The search set stays open for further selections.
	again := r.router.HandleSelection(ctx, owner, reply.Options[0].Data)
	assert.Contains(t, again.Text, "<b>Gmail</b>")
}

func TestRouter_DetailsAreEscaped(t *testing.T) {
	r := newRouter(t, 0, func(v *vault.Vault) {
		v.AddEntry(nil, "<script>", "a&b", "x<y", "")
	})
	ctx := context.Background()

	reply := r.router.HandleText(ctx, owner, "script")
	require.Len(t, reply.Options, 1)

	shown := r.router.HandleSelection(ctx, owner, reply.Options[0].Data)
	assert.Contains(t, shown.Text, "&lt;script&gt;")
	assert.Contains(t, shown.Text, "a&amp;b")
	assert.Contains(t, shown.Text, "x&lt;y")
	assert.NotContains(t, shown.Text, "<script>")
}

func TestRouter_ZeroMatchesPublishNothing(t *testing.T) {
	r := newRouter(t, 0, func(v *vault.Vault) {
		v.AddEntry(nil, "Bank", "bob", "pw", "")
	})
	ctx := context.Background()

	first := r.router.HandleText(ctx, owner, "bank")
	require.Len(t, first.Options, 1)

	reply := r.router.HandleText(ctx, owner, "gmail")
	assert.Equal(t, msgNothingFound, reply.Text)
	assert.Empty(t, reply.Options)

	// The earlier set was not replaced.
	shown := r.router.HandleSelection(ctx, owner, first.Options[0].Data)
	assert.Contains(t, shown.Text, "<b>Bank</b>")
}

func TestRouter_EmptyQueryDoesNotPull(t *testing.T) {
	r := newRouter(t, 0, mailEntries)
	r.store.getErr = errors.New("must not be called")

	reply := r.router.HandleText(context.Background(), owner, " ?! ")
	assert.Equal(t, msgEmptyQuery, reply.Text)
}

func TestRouter_ResultLimit(t *testing.T) {
	r := newRouter(t, 2, func(v *vault.Vault) {
		for i := range 5 {
			v.AddEntry(nil, fmt.Sprintf("site %d", i), "", "pw", "")
		}
	})

	reply := r.router.HandleText(context.Background(), owner, "site")
	require.Len(t, reply.Options, 2)
	assert.Equal(t, "site 0", reply.Options[0].Label)
	assert.Contains(t, reply.Text, msgMore(3))
}

func TestRouter_DeleteFlow(t *testing.T) {
	r := newRouter(t, 0, mailEntries)
	ctx := context.Background()

	r.router.HandleCommand(ctx, owner, "delete")
	reply := r.router.HandleText(ctx, owner, "github")
	assert.Equal(t, msgDeleteHeader, reply.Text)
	require.Len(t, reply.Options, 1)
	assert.Equal(t, session.Idle, r.sessions.Mode(owner))

	done := r.router.HandleSelection(ctx, owner, reply.Options[0].Data)
	assert.Equal(t, `Deleted "GitHub".`, done.Text)
	assert.Equal(t, []string{"Gmail", "Bank"}, r.remoteTitles(t))

	// The candidate set is cleared after the delete.
	assert.Equal(t, msgExpired, r.router.HandleSelection(ctx, owner, reply.Options[0].Data).Text)
}

func TestRouter_DeleteAlreadyGone(t *testing.T) {
	r := newRouter(t, 0, mailEntries)
	ctx := context.Background()

	r.router.HandleCommand(ctx, owner, "delete")
	reply := r.router.HandleText(ctx, owner, "gmail")
	require.Len(t, reply.Options, 1)

	// Someone else removes the entry in the meantime.
	found, err := r.service.Search(ctx, "gmail")
	require.NoError(t, err)
	_, ok, err := r.service.Delete(ctx, found[0].ID)
	require.NoError(t, err)
	require.True(t, ok)

	done := r.router.HandleSelection(ctx, owner, reply.Options[0].Data)
	assert.Equal(t, msgAlreadyDeleted, done.Text)
}

func TestRouter_DeleteNothingFound(t *testing.T) {
	r := newRouter(t, 0, mailEntries)
	ctx := context.Background()

	r.router.HandleCommand(ctx, owner, "delete")
	reply := r.router.HandleText(ctx, owner, "nope")
	assert.Equal(t, msgNothingFound, reply.Text)
	assert.Equal(t, session.Idle, r.sessions.Mode(owner))
}

func TestRouter_StaleAndForeignSelections(t *testing.T) {
	r := newRouter(t, 0, mailEntries)
	ctx := context.Background()

	first := r.router.HandleText(ctx, owner, "gmail")
	require.Len(t, first.Options, 1)
	second := r.router.HandleText(ctx, owner, "github")
	require.Len(t, second.Options, 1)

	assert.Equal(t, msgExpired, r.router.HandleSelection(ctx, owner, first.Options[0].Data).Text)
	assert.Equal(t, msgExpired, r.router.HandleSelection(ctx, owner, "garbage").Text)

	// A search token cannot be replayed as a delete candidate.
	tok, err := registry.ParseToken(second.Options[0].Data)
	require.NoError(t, err)
	tok.Kind = registry.DeleteCandidates
	assert.Equal(t, msgExpired, r.router.HandleSelection(ctx, owner, tok.String()).Text)
	assert.Equal(t, []string{"Gmail", "GitHub", "Bank"}, r.remoteTitles(t))
}

func TestRouter_Download(t *testing.T) {
	r := newRouter(t, 0, mailEntries)

	reply := r.router.HandleSelection(context.Background(), owner, DownloadData)
	require.NotNil(t, reply.Document)
	assert.Equal(t, "keeper.kbx", reply.Document.Name)
	assert.NotEmpty(t, reply.Document.Data)
}

func TestRouter_PushFailureWarnsDivergence(t *testing.T) {
	r := newRouter(t, 0, nil)
	ctx := context.Background()
	r.store.putErr = errors.New("bucket unavailable")

	r.router.HandleCommand(ctx, owner, "add")
	assert.Equal(t, msgDiverged, r.router.HandleText(ctx, owner, "a|b|c").Text)
}

func TestRouter_WrongSecret(t *testing.T) {
	r := newRouter(t, 0, nil)
	r.service.secret = []byte("nope")

	assert.Equal(t, msgWrongSecret, r.router.HandleText(context.Background(), owner, "gmail").Text)
}

func TestRouter_IdleSessionExpiresSelection(t *testing.T) {
	r := newRouterWithIdle(t, 0, 20*time.Millisecond, mailEntries)
	ctx := context.Background()

	r.router.HandleCommand(ctx, owner, "delete")
	reply := r.router.HandleText(ctx, owner, "github")
	require.Len(t, reply.Options, 1)

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, msgExpired, r.router.HandleSelection(ctx, owner, reply.Options[0].Data).Text)
	assert.Equal(t, []string{"Gmail", "GitHub", "Bank"}, r.remoteTitles(t))
}
