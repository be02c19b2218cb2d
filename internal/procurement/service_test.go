package procurement

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nirmaan-flow/nirmaan-flow/internal/notify"
)

type memoryRepo struct {
	requests map[string]ProcurementRequest
	orders   map[string]ProcurementOrder
	vendors  map[string]Vendor
	items    map[string]Item
	sentBack []SentBackCategory
	comments []Comment
	quotes   []ApprovedQuotation
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		requests: make(map[string]ProcurementRequest),
		orders:   make(map[string]ProcurementOrder),
		vendors:  make(map[string]Vendor),
		items:    make(map[string]Item),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetRequest(ctx context.Context, name string) (ProcurementRequest, error) {
	pr, ok := r.requests[name]
	if !ok {
		return ProcurementRequest{}, ErrNotFound
	}
	pr.ProcurementList = append([]LineItem(nil), pr.ProcurementList...)
	pr.CategoryList = append([]CategoryRef(nil), pr.CategoryList...)
	return pr, nil
}

func (r *memoryRepo) GetOrder(ctx context.Context, name string) (ProcurementOrder, error) {
	po, ok := r.orders[name]
	if !ok {
		return ProcurementOrder{}, ErrNotFound
	}
	return po, nil
}

func (r *memoryRepo) GetVendor(ctx context.Context, name string) (Vendor, error) {
	v, ok := r.vendors[name]
	if !ok {
		return Vendor{}, ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) GetItem(ctx context.Context, name string) (Item, error) {
	it, ok := r.items[name]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (r *memoryRepo) DeleteOrder(ctx context.Context, name string) error {
	delete(r.orders, name)
	return nil
}

func (r *memoryRepo) InsertApprovedQuotation(ctx context.Context, aq ApprovedQuotation) (string, error) {
	r.quotes = append(r.quotes, aq)
	return aq.Name, nil
}

func (tx *memoryTx) InsertSentBack(ctx context.Context, sb SentBackCategory) (string, error) {
	tx.repo.sentBack = append(tx.repo.sentBack, sb)
	return sb.Name, nil
}

func (tx *memoryTx) InsertComment(ctx context.Context, c Comment) (string, error) {
	tx.repo.comments = append(tx.repo.comments, c)
	return c.Name, nil
}

func (tx *memoryTx) SaveRequestList(ctx context.Context, name string, items []LineItem, state WorkflowState) error {
	pr, ok := tx.repo.requests[name]
	if !ok {
		return ErrNotFound
	}
	pr.ProcurementList = items
	pr.WorkflowState = state
	tx.repo.requests[name] = pr
	return nil
}

type publishRecord struct {
	user    string
	event   string
	message notify.Envelope
}

type fakeNotifier struct {
	users     []notify.AllowedUser
	fullNames map[string]string
	inserted  []notify.Notification
	published []publishRecord
}

func (f *fakeNotifier) AllowedUsers(ctx context.Context, project string) ([]notify.AllowedUser, error) {
	return f.users, nil
}

func (f *fakeNotifier) UserFullName(ctx context.Context, name string) (string, error) {
	if full, ok := f.fullNames[name]; ok {
		return full, nil
	}
	return name, nil
}

func (f *fakeNotifier) Insert(ctx context.Context, n notify.Notification) (string, error) {
	n.Name = fmt.Sprintf("NT-%d", len(f.inserted)+1)
	f.inserted = append(f.inserted, n)
	return n.Name, nil
}

func (f *fakeNotifier) Publish(ctx context.Context, user, event string, message notify.Envelope) error {
	f.published = append(f.published, publishRecord{user: user, event: event, message: message})
	return nil
}

type pushRecord struct {
	user  string
	title string
	body  string
	link  string
}

type fakePush struct {
	sent []pushRecord
}

func (f *fakePush) SendPush(ctx context.Context, user notify.AllowedUser, title, body, link string) error {
	f.sent = append(f.sent, pushRecord{user: user.Name, title: title, body: body, link: link})
	return nil
}

func newTestService(repo *memoryRepo, notifier *fakeNotifier, push *fakePush) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, notifier, push, nil, logger, "http://localhost:8080")
}

func seedRequest(repo *memoryRepo, state WorkflowState, items []LineItem, categories []CategoryRef) {
	repo.requests["PR-1"] = ProcurementRequest{
		Name:            "PR-1",
		Project:         "PROJ-1",
		WorkPackage:     "Civil Works",
		WorkflowState:   state,
		ProcurementList: items,
		CategoryList:    categories,
	}
}

func TestSendBackEmptySelection(t *testing.T) {
	repo := newMemoryRepo()
	seedRequest(repo, StateVendorSelected, []LineItem{
		{Name: "i1", Item: "Cement", Category: "c1", Status: ItemPending},
		{Name: "i2", Item: "Steel", Category: "c1", Status: ItemPending},
	}, []CategoryRef{{Name: "c1", Makes: []string{"ACC"}}})
	svc := newTestService(repo, &fakeNotifier{}, &fakePush{})

	result, err := svc.SendBack(context.Background(), SendBackInput{
		ProjectID: "PROJ-1", PRName: "PR-1",
	})
	require.NoError(t, err)
	require.Empty(t, result.SentBack)
	require.Empty(t, repo.sentBack)

	pr := repo.requests["PR-1"]
	for _, item := range pr.ProcurementList {
		require.Equal(t, ItemPending, item.Status)
	}
}

func TestSendBackAllItemsSelected(t *testing.T) {
	repo := newMemoryRepo()
	seedRequest(repo, StateVendorSelected, []LineItem{
		{Name: "i1", Item: "Cement", Category: "c1", Status: ItemPending},
		{Name: "i2", Item: "Steel", Category: "c2", Status: ItemPending},
	}, []CategoryRef{{Name: "c1", Makes: []string{"ACC"}}, {Name: "c2", Makes: []string{"TATA"}}})
	svc := newTestService(repo, &fakeNotifier{}, &fakePush{})

	result, err := svc.SendBack(context.Background(), SendBackInput{
		ProjectID: "PROJ-1", PRName: "PR-1", SelectedItems: []string{"i1", "i2"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.SentBack)
	require.Len(t, repo.sentBack, 1)

	sb := repo.sentBack[0]
	require.Equal(t, SentBackTypeRejected, sb.Type)
	require.Equal(t, "PR-1", sb.ProcurementRequest)
	require.Len(t, sb.ItemList, 2)
	for _, item := range sb.ItemList {
		require.Equal(t, ItemPending, item.Status)
	}
	require.Len(t, sb.CategoryList, 2)

	pr := repo.requests["PR-1"]
	require.Equal(t, StateSentBack, pr.WorkflowState)
	for _, item := range pr.ProcurementList {
		require.Equal(t, ItemSentBack, item.Status)
	}
}

func TestSendBackRepeatedCreatesDuplicates(t *testing.T) {
	// Repeated send-backs are intentionally not deduplicated: each call
	// records another rejection round.
	repo := newMemoryRepo()
	seedRequest(repo, StateVendorSelected, []LineItem{
		{Name: "i1", Item: "Cement", Category: "c1", Status: ItemPending},
	}, []CategoryRef{{Name: "c1", Makes: []string{"ACC"}}})
	svc := newTestService(repo, &fakeNotifier{}, &fakePush{})

	input := SendBackInput{ProjectID: "PROJ-1", PRName: "PR-1", SelectedItems: []string{"i1"}}
	_, err := svc.SendBack(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.SendBack(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, repo.sentBack, 2)
}

func TestSendBackMissingCategoryYieldsEmptyMakes(t *testing.T) {
	repo := newMemoryRepo()
	seedRequest(repo, StateVendorSelected, []LineItem{
		{Name: "i1", Item: "Cement", Category: "ghost", Status: ItemPending},
	}, []CategoryRef{{Name: "c1", Makes: []string{"ACC"}}})
	svc := newTestService(repo, &fakeNotifier{}, &fakePush{})

	_, err := svc.SendBack(context.Background(), SendBackInput{
		ProjectID: "PROJ-1", PRName: "PR-1", SelectedItems: []string{"i1"},
	})
	require.NoError(t, err)
	require.Len(t, repo.sentBack, 1)
	require.Len(t, repo.sentBack[0].CategoryList, 1)
	require.Equal(t, "ghost", repo.sentBack[0].CategoryList[0].Name)
	require.Empty(t, repo.sentBack[0].CategoryList[0].Makes)
}

func TestSendBackPartialWithApprovedItem(t *testing.T) {
	repo := newMemoryRepo()
	seedRequest(repo, StateVendorSelected, []LineItem{
		{Name: "i1", Item: "Cement", Category: "c1", Status: ItemPending},
		{Name: "i2", Item: "Steel", Category: "c1", Status: ItemApproved},
	}, []CategoryRef{{Name: "c1", Makes: []string{"ACC"}}})
	svc := newTestService(repo, &fakeNotifier{}, &fakePush{})

	_, err := svc.SendBack(context.Background(), SendBackInput{
		ProjectID: "PROJ-1", PRName: "PR-1", SelectedItems: []string{"i1"},
	})
	require.NoError(t, err)

	require.Len(t, repo.sentBack, 1)
	require.Len(t, repo.sentBack[0].ItemList, 1)
	require.Equal(t, "i1", repo.sentBack[0].ItemList[0].Name)

	pr := repo.requests["PR-1"]
	require.Equal(t, StatePartiallyApproved, pr.WorkflowState)
	require.Equal(t, ItemSentBack, pr.ProcurementList[0].Status)
	require.Equal(t, ItemApproved, pr.ProcurementList[1].Status)
}

func TestSendBackWithCommentCreatesCommentRecord(t *testing.T) {
	repo := newMemoryRepo()
	seedRequest(repo, StateVendorSelected, []LineItem{
		{Name: "i1", Item: "Cement", Category: "c1", Status: ItemPending},
	}, []CategoryRef{{Name: "c1", Makes: []string{"ACC"}}})
	svc := newTestService(repo, &fakeNotifier{}, &fakePush{})

	result, err := svc.SendBack(context.Background(), SendBackInput{
		ProjectID: "PROJ-1", PRName: "PR-1", SelectedItems: []string{"i1"},
		Comments: "quote too high",
	})
	require.NoError(t, err)
	require.Len(t, repo.comments, 1)

	comment := repo.comments[0]
	require.Equal(t, "Sent Back Category", comment.ReferenceDoctype)
	require.Equal(t, result.SentBack, comment.ReferenceName)
	require.Equal(t, "quote too high", comment.Content)
	require.Equal(t, "creating sent-back", comment.Subject)
}

func TestSendBackUnknownRequest(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &fakeNotifier{}, &fakePush{})

	_, err := svc.SendBack(context.Background(), SendBackInput{
		ProjectID: "PROJ-1", PRName: "PR-missing", SelectedItems: []string{"i1"},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeriveWorkflowState(t *testing.T) {
	pending := func(n int) []LineItem {
		items := make([]LineItem, n)
		for i := range items {
			items[i] = LineItem{Name: fmt.Sprintf("i%d", i), Status: ItemPending}
		}
		return items
	}

	cases := []struct {
		name     string
		previous WorkflowState
		items    []LineItem
		selected int
		want     WorkflowState
	}{
		{"vendor selected, all sent back", StateVendorSelected, pending(3), 3, StateSentBack},
		{"no approved, selected equals pending", StatePending, pending(2), 2, StateSentBack},
		{"approved item present", StateVendorSelected,
			[]LineItem{{Name: "i1", Status: ItemPending}, {Name: "i2", Status: ItemApproved}}, 1,
			StatePartiallyApproved},
		{"partial selection of pending items", StatePending, pending(3), 1, StatePartiallyApproved},
		{"vendor selected, partial selection", StateVendorSelected, pending(3), 2, StatePartiallyApproved},
		{"already sent back items ignored in pending count", StatePending,
			[]LineItem{{Name: "i1", Status: ItemSentBack}, {Name: "i2", Status: ItemPending}}, 1,
			StateSentBack},
		{"empty list, empty selection", StatePending, nil, 0, StateSentBack},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := deriveWorkflowState(tc.previous, tc.items, tc.selected)
			require.Equal(t, tc.want, got)
		})
	}
}
