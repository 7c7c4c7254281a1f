package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"parts-bot/internal/cart"
	"parts-bot/internal/catalog"
	"parts-bot/internal/domain"
	"parts-bot/internal/order"
	"parts-bot/internal/query"
	"parts-bot/internal/session"

	"go.uber.org/zap"
)

const (
	// MaxNameMatches caps how many name-search candidates are handed
	// to the presenter
	MaxNameMatches = 10

	// DefaultPageSize is the model catalog page size used when the
	// configured one is not usable
	DefaultPageSize = 5
)

// NoticeKind classifies a structured user-facing notice. Rendering is
// entirely the presenter's job; the service never builds message text.
type NoticeKind int

const (
	NoticeProductNotFound NoticeKind = iota
	NoticeInvalidQuantity
	NoticeInsufficientStock
	NoticeAdded
	NoticeCartCleared
	NoticeEmptyCart
	NoticeQuantityPrompt
	NoticeGreeting
	NoticeWelcomeBack
)

// Notice is one structured notification for a single user
type Notice struct {
	Kind      NoticeKind
	Product   domain.Product
	Quantity  int
	Available int
}

// ModelPage is one page of the model catalog
type ModelPage struct {
	Model    string
	Page     int
	Pages    int
	Products []domain.Product
}

// Presenter renders structured data to the end user over the chat
// transport. Implementations live outside this module.
type Presenter interface {
	ShowProduct(ctx context.Context, userID string, p domain.Product)
	ShowMatches(ctx context.Context, userID string, matches []domain.Product)
	ShowCart(ctx context.Context, userID string, lines []domain.CartLine, total int64)
	ShowModels(ctx context.Context, userID string, models []string)
	ShowModelPage(ctx context.Context, userID string, page ModelPage)
	DeliverOrder(ctx context.Context, recipientID string, o domain.Order, artifact []byte)
	Notify(ctx context.Context, userID string, n Notice)
}

// Exporter turns a computed order into a printable artifact
type Exporter interface {
	Export(o domain.Order) ([]byte, error)
}

// Transcriber turns voice audio into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// BotService orchestrates the conversational ordering flow
type BotService interface {
	Greet(ctx context.Context, userID string)
	HandleText(ctx context.Context, userID, text string)
	HandleVoice(ctx context.Context, userID string, audio []byte) error
	QuickAdd(ctx context.Context, userID, code string, qty int)

	StartQuantityEntry(ctx context.Context, userID, code string)
	PushDigit(ctx context.Context, userID string, d byte)
	Backspace(ctx context.Context, userID string)
	ConfirmQuantity(ctx context.Context, userID string)
	CancelQuantityEntry(ctx context.Context, userID string)

	ShowCart(ctx context.Context, userID string)
	CartPlus(ctx context.Context, userID, code string)
	CartMinus(ctx context.Context, userID, code string)
	ClearCart(ctx context.Context, userID string)
	Checkout(ctx context.Context, userID string) error

	Models(ctx context.Context, userID string)
	ModelPage(ctx context.Context, userID, model string, page int)

	ImportRows(ctx context.Context, userID string, rows []ImportRow) ImportReport
}

type botService struct {
	catalog    *catalog.Cache
	cart       *cart.Store
	resolver   *query.Resolver
	sessions   *session.Registry
	summarizer *order.Summarizer
	presenter  Presenter
	exporter   Exporter
	transcribe Transcriber
	logger     *zap.Logger

	adminRecipient string
	pageSize       int

	mu      sync.Mutex
	greeted map[string]struct{}
}

// NewBotService wires the conversational core together
func NewBotService(
	cat *catalog.Cache,
	cartStore *cart.Store,
	sessions *session.Registry,
	presenter Presenter,
	exporter Exporter,
	transcriber Transcriber,
	adminRecipient string,
	pageSize int,
	logger *zap.Logger,
) BotService {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &botService{
		catalog:        cat,
		cart:           cartStore,
		resolver:       query.NewResolver(cat),
		sessions:       sessions,
		summarizer:     order.NewSummarizer(cartStore),
		presenter:      presenter,
		exporter:       exporter,
		transcribe:     transcriber,
		logger:         logger,
		adminRecipient: adminRecipient,
		pageSize:       pageSize,
		greeted:        make(map[string]struct{}),
	}
}

// Greet welcomes the user, with a fuller greeting on first contact
func (s *botService) Greet(ctx context.Context, userID string) {
	s.mu.Lock()
	_, seen := s.greeted[userID]
	s.greeted[userID] = struct{}{}
	s.mu.Unlock()

	if seen {
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeWelcomeBack})
		return
	}
	s.presenter.Notify(ctx, userID, Notice{Kind: NoticeGreeting})
}

// HandleText processes one free-form text message: article code,
// code plus quantity, or a name fragment.
func (s *botService) HandleText(ctx context.Context, userID, text string) {
	res := s.resolver.Resolve(ctx, text)

	switch res.Kind {
	case query.NoMatch:
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeProductNotFound})

	case query.NameMatches:
		matches := res.Matches
		if len(matches) > MaxNameMatches {
			matches = matches[:MaxNameMatches]
		}
		s.presenter.ShowMatches(ctx, userID, matches)

	case query.ExactMatch:
		if res.Quantity == 0 {
			s.presenter.ShowProduct(ctx, userID, res.Product)
			return
		}
		s.addAndReport(ctx, userID, res.Product, res.Quantity, true)
	}
}

// HandleVoice transcribes the audio and feeds the text into the same
// resolution path as a typed message.
func (s *botService) HandleVoice(ctx context.Context, userID string, audio []byte) error {
	text, err := s.transcribe.Transcribe(ctx, audio)
	if err != nil {
		return fmt.Errorf("failed to transcribe voice message: %w", err)
	}

	s.HandleText(ctx, userID, text)
	return nil
}

// QuickAdd handles the +1/+2/+5/+10 buttons on a product card. The
// product is re-fetched so the stock check runs against the current
// snapshot, not whatever the card was rendered from.
func (s *botService) QuickAdd(ctx context.Context, userID, code string, qty int) {
	product, ok := s.catalog.FindByCode(ctx, code)
	if !ok {
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeProductNotFound})
		return
	}

	s.addAndReport(ctx, userID, product, qty, false)
}

func (s *botService) addAndReport(ctx context.Context, userID string, product domain.Product, qty int, showCart bool) {
	err := s.cart.Add(userID, product, qty)
	if err == nil {
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeAdded, Product: product, Quantity: qty})
		if showCart {
			s.ShowCart(ctx, userID)
		}
		return
	}

	var stockErr *cart.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		s.presenter.Notify(ctx, userID, Notice{
			Kind:      NoticeInsufficientStock,
			Product:   product,
			Quantity:  qty,
			Available: stockErr.Available,
		})
	case errors.Is(err, cart.ErrInvalidQuantity):
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeInvalidQuantity, Product: product})
	default:
		s.logger.Error("cart add failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// StartQuantityEntry opens the manual keypad flow for the code
func (s *botService) StartQuantityEntry(ctx context.Context, userID, code string) {
	s.sessions.Start(userID, code)

	product, _ := s.catalog.FindByCode(ctx, code)
	s.presenter.Notify(ctx, userID, Notice{Kind: NoticeQuantityPrompt, Product: product})
}

// PushDigit extends the pending quantity by one digit
func (s *botService) PushDigit(_ context.Context, userID string, d byte) {
	s.sessions.PushDigit(userID, d)
}

// Backspace removes the last pending digit
func (s *botService) Backspace(_ context.Context, userID string) {
	s.sessions.Backspace(userID)
}

// ConfirmQuantity terminates the keypad flow with a cart mutation.
// Failure outcomes keep the session alive so the user can retry.
func (s *botService) ConfirmQuantity(ctx context.Context, userID string) {
	res, err := s.sessions.Confirm(ctx, userID)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			s.logger.Error("quantity confirm failed", zap.String("user_id", userID), zap.Error(err))
		}
		return
	}

	switch res.Outcome {
	case session.Added:
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeAdded, Product: res.Product, Quantity: res.Quantity})
		s.ShowCart(ctx, userID)
	case session.EmptyInput:
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeInvalidQuantity})
	case session.ProductGone:
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeProductNotFound})
	case session.InsufficientStock:
		s.presenter.Notify(ctx, userID, Notice{
			Kind:      NoticeInsufficientStock,
			Product:   res.Product,
			Quantity:  res.Quantity,
			Available: res.Available,
		})
	}
}

// CancelQuantityEntry abandons the keypad flow without cart changes
func (s *botService) CancelQuantityEntry(_ context.Context, userID string) {
	s.sessions.Cancel(userID)
}

// ShowCart renders the user's current cart
func (s *botService) ShowCart(ctx context.Context, userID string) {
	lines := s.cart.Snapshot(userID)
	if len(lines) == 0 {
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeEmptyCart})
		return
	}

	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	s.presenter.ShowCart(ctx, userID, lines, total)
}

// CartPlus adds one more unit, re-checking stock against the catalog
func (s *botService) CartPlus(ctx context.Context, userID, code string) {
	product, ok := s.catalog.FindByCode(ctx, code)
	if !ok {
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeProductNotFound})
		return
	}

	if err := s.cart.Add(userID, product, 1); err != nil {
		var stockErr *cart.InsufficientStockError
		if errors.As(err, &stockErr) {
			s.presenter.Notify(ctx, userID, Notice{
				Kind:      NoticeInsufficientStock,
				Product:   product,
				Quantity:  1,
				Available: stockErr.Available,
			})
			return
		}
		s.logger.Error("cart plus failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	s.ShowCart(ctx, userID)
}

// CartMinus removes one unit; the line disappears when it hits zero
func (s *botService) CartMinus(ctx context.Context, userID, code string) {
	s.cart.ChangeQuantity(userID, code, -1)
	s.ShowCart(ctx, userID)
}

// ClearCart empties the user's cart
func (s *botService) ClearCart(ctx context.Context, userID string) {
	s.cart.Clear(userID)
	s.presenter.Notify(ctx, userID, Notice{Kind: NoticeCartCleared})
}

// Checkout computes the order, exports it and delivers the artifact
// to the purchaser and the fixed administrative recipient. Totals are
// deliberately not re-validated against live stock here.
func (s *botService) Checkout(ctx context.Context, userID string) error {
	o := s.summarizer.Compute(userID)
	if o.IsEmpty() {
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeEmptyCart})
		return nil
	}

	artifact, err := s.exporter.Export(o)
	if err != nil {
		return fmt.Errorf("failed to export order %s: %w", o.ID, err)
	}

	s.presenter.DeliverOrder(ctx, userID, o, artifact)
	s.presenter.DeliverOrder(ctx, s.adminRecipient, o, artifact)

	s.logger.Info("order exported",
		zap.String("order_id", o.ID.String()),
		zap.String("user_id", userID),
		zap.Int("lines", len(o.Lines)),
		zap.Int64("total", o.GrandTotal),
	)
	return nil
}

// Models shows the list of distinct model tags
func (s *botService) Models(ctx context.Context, userID string) {
	s.presenter.ShowModels(ctx, userID, s.catalog.ModelTags(ctx))
}

// ModelPage shows one page of products for a model. Out-of-range page
// numbers clamp to the first or last page.
func (s *botService) ModelPage(ctx context.Context, userID, model string, page int) {
	products := s.catalog.FindByModel(ctx, model)
	if len(products) == 0 {
		s.presenter.Notify(ctx, userID, Notice{Kind: NoticeProductNotFound})
		return
	}

	pages := (len(products) + s.pageSize - 1) / s.pageSize
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if end > len(products) {
		end = len(products)
	}

	s.presenter.ShowModelPage(ctx, userID, ModelPage{
		Model:    model,
		Page:     page,
		Pages:    pages,
		Products: products[start:end],
	})
}
