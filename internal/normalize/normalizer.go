package normalize

import (
	"crypto/rand"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"transfer-status-backend/internal/models"
)

// Alias chains, highest priority first.
var (
	statusPaths = []string{"status", "state", "phase", "transfer.status"}
	railPaths   = []string{"rail", "type", "transfer.rail", "meta.rail", "payload.rail"}
	kindPaths   = []string{"cryptoKind", "crypto.kind", "meta.cryptoKind"}

	amountPaths   = []string{"amount", "transfer.amount", "payload.amount", "usd", "value", "total"}
	currencyPaths = []string{"amount.currency", "currency", "ccy", "transfer.amount.currency", "transfer.currency", "payload.currency"}

	appFeePaths     = []string{"fees.app", "fees.appFee", "appFee", "app_fee", "fee", "transfer.fees.app"}
	networkFeePaths = []string{"fees.network", "fees.networkFee", "networkFee", "network_fee", "netFee", "transfer.fees.network"}
	feeCcyPaths     = []string{"fees.currency", "fees.ccy", "feeCurrency", "feeCcy", "transfer.fees.currency"}

	senderNamePaths  = []string{"sender.name", "from.name", "source.name", "originator.name", "payer.name", "account.name", "fromName", "senderName", "from"}
	senderMaskPaths  = []string{"sender.mask", "sender.accountMask", "from.mask", "from.accountMask", "source.mask", "account.mask", "fromMask", "sender.last4"}
	senderEmailPaths = []string{"sender.email", "from.email", "source.email", "payer.email", "senderEmail", "fromEmail"}
	senderTagPaths   = []string{"sender.tag", "sender.handle", "from.tag", "from.handle", "fromTag"}

	recipientNamePaths    = []string{"recipient.name", "to.name", "beneficiary.name", "payee.name", "counterparty.name", "to", "toName", "recipientName", "recipient"}
	recipientEmailPaths   = []string{"recipient.email", "to.email", "beneficiary.email", "payee.email", "counterparty.email", "email", "recipientEmail"}
	recipientTagPaths     = []string{"recipient.tag", "recipient.handle", "to.tag", "to.handle", "payee.tag", "counterparty.tag", "tag", "handle", "cashtag"}
	recipientMaskPaths    = []string{"recipient.mask", "recipient.accountMask", "to.mask", "to.accountMask", "beneficiary.accountMask", "beneficiary.mask", "payee.mask", "counterparty.mask", "acct", "recipient.last4"}
	recipientAddressPaths = []string{"recipient.cryptoAddress", "recipient.address", "to.cryptoAddress", "to.address", "crypto.address", "crypto.to", "wallet.address", "cryptoAddress", "addr", "address"}
	recipientNetworkPaths = []string{"recipient.network", "to.network", "crypto.network", "wallet.network", "net", "network", "chain"}

	etaPaths       = []string{"eta", "etaText", "transfer.eta", "estimatedArrival", "meta.eta"}
	referencePaths = []string{"referenceId", "reference_id", "reference", "ref", "id", "transfer.referenceId", "transfer.reference", "transfer.id", "payload.referenceId"}
	createdAtPaths = []string{"createdAt", "created_at", "timestamp", "transfer.createdAt", "meta.createdAt"}
	cancelPaths    = []string{"cancelable", "cancellable", "transfer.cancelable"}
	notePaths      = []string{"note", "memo", "description", "transfer.note", "meta.note"}
	tracePaths     = []string{"traceId", "trace_id", "imad", "omad", "wire.imad", "wire.traceId", "transfer.traceId"}

	cryptoAmountPaths = []string{"cryptoAmount", "crypto.qty", "crypto.amount", "crypto.quantity", "qty", "quantity"}
	cryptoSymbolPaths = []string{"cryptoSymbol", "crypto.symbol", "crypto.asset", "asset", "symbol"}
)

// Defaults supplies values the caller knows better than a generated fallback.
type Defaults struct {
	ReferenceID string
	CreatedAt   time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock replaces time.Now for createdAt defaults.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDGenerator replaces the placeholder reference generator.
func WithIDGenerator(gen func() string) Option {
	return func(n *Normalizer) { n.newID = gen }
}

// Normalizer turns raw transfer payloads into summaries.
type Normalizer struct {
	now   func() time.Time
	newID func() string
}

// New creates a Normalizer using the wall clock and random placeholder references.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:   time.Now,
		newID: NewPlaceholderID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New()

// Normalize runs the default Normalizer.
func Normalize(raw []byte) models.TransferSummary {
	return defaultNormalizer.Normalize(raw)
}

// Normalize converts a JSON payload. Invalid or non-object JSON is treated as {}.
func (n *Normalizer) Normalize(raw []byte) models.TransferSummary {
	return n.NormalizeWith(raw, Defaults{})
}

// NormalizeMap converts an already decoded payload.
func (n *Normalizer) NormalizeMap(m map[string]any) models.TransferSummary {
	raw, err := json.Marshal(m)
	if err != nil {
		raw = nil
	}
	return n.Normalize(raw)
}

// Placeholder is the minimal summary shown when no source is usable.
func (n *Normalizer) Placeholder(d Defaults) models.TransferSummary {
	return n.NormalizeWith(nil, d)
}

// NormalizeWith converts a JSON payload, using d where the payload has no value.
func (n *Normalizer) NormalizeWith(raw []byte, d Defaults) models.TransferSummary {
	src := parseObject(raw)

	rail, kind, railRaw := resolveRail(src)
	amount := resolveAmount(src)

	s := models.TransferSummary{
		Status:      resolveStatus(src),
		Type:        rail,
		RailRaw:     railRaw,
		CryptoKind:  kind,
		CreatedAt:   n.resolveCreatedAt(src, d.CreatedAt),
		Amount:      amount,
		Fees:        resolveFees(src, amount.Currency),
		Sender:      resolveSender(src),
		Recipient:   resolveRecipient(src, rail),
		ReferenceID: n.resolveReference(src, d.ReferenceID),
		Cancelable:  resolveCancelable(src),
		Note:        pickOr(src, "", notePaths...),
		TraceID:     pickOr(src, "", tracePaths...),
	}
	s.ETAText = pickOr(src, ETAFor(rail), etaPaths...)

	if rail == models.RailCrypto {
		if s.CryptoKind == "" {
			if k := models.CryptoKind(strings.ToLower(pickOr(src, "", kindPaths...))); k.IsValid() {
				s.CryptoKind = k
			}
		}
		if r, ok := firstPresent(src, cryptoAmountPaths...); ok {
			qty := safeNumber(r)
			s.CryptoAmount = &qty
		}
		s.CryptoSymbol = strings.ToUpper(pickOr(src, "", cryptoSymbolPaths...))
	}
	return s
}

func parseObject(raw []byte) gjson.Result {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return gjson.Parse("{}")
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return gjson.Parse("{}")
	}
	return r
}

// pick returns the first path whose value passes FirstTruthy.
func pick(src gjson.Result, paths ...string) (string, bool) {
	for _, p := range paths {
		if s, ok := truthyJSON(src.Get(p)); ok {
			return s, true
		}
	}
	return "", false
}

func pickOr(src gjson.Result, fallback string, paths ...string) string {
	if s, ok := pick(src, paths...); ok {
		return s
	}
	return fallback
}

// firstPresent returns the first path that exists and is not null.
func firstPresent(src gjson.Result, paths ...string) (gjson.Result, bool) {
	for _, p := range paths {
		r := src.Get(p)
		if r.Exists() && r.Type != gjson.Null {
			return r, true
		}
	}
	return gjson.Result{}, false
}

// safeNumber coerces numbers and numeric strings; everything else, including NaN
// and infinities, becomes 0.
func safeNumber(r gjson.Result) float64 {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Num
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return 0
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = v
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// optionalNumber is safeNumber for fields that stay absent when not numeric.
func optionalNumber(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
	case gjson.String:
		if _, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64); err != nil {
			return nil
		}
	default:
		return nil
	}
	f := safeNumber(r)
	return &f
}

func resolveStatus(src gjson.Result) models.Status {
	raw, ok := pick(src, statusPaths...)
	if !ok {
		return models.StatusPending
	}
	s := models.Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return models.StatusPending
	}
	return s
}

func resolveRail(src gjson.Result) (models.Rail, models.CryptoKind, string) {
	raw := pickOr(src, string(models.RailACH), railPaths...)
	rail, kind := ClassifyRail(raw)
	return rail, kind, raw
}

func resolveAmount(src gjson.Result) models.Amount {
	amount := models.Amount{
		Currency: strings.ToUpper(pickOr(src, "USD", currencyPaths...)),
	}
	for _, p := range amountPaths {
		r := src.Get(p)
		if r.IsObject() {
			r = firstOf(r, "value", "amount")
		}
		if r.Exists() && r.Type != gjson.Null {
			amount.Value = safeNumber(r)
			break
		}
	}
	return amount
}

func firstOf(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := obj.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func resolveFees(src gjson.Result, amountCurrency string) models.Fees {
	fees := models.Fees{
		Currency: strings.ToUpper(pickOr(src, amountCurrency, feeCcyPaths...)),
	}
	if fees.Currency == "" {
		fees.Currency = "USD"
	}
	if r, ok := firstPresent(src, appFeePaths...); ok {
		fees.App = optionalNumber(r)
	}
	if r, ok := firstPresent(src, networkFeePaths...); ok {
		fees.Network = optionalNumber(r)
	}
	return fees
}

func resolveSender(src gjson.Result) models.Party {
	p := models.Party{
		Name:  pickOr(src, "", senderNamePaths...),
		Mask:  pickOr(src, "", senderMaskPaths...),
		Email: pickOr(src, "", senderEmailPaths...),
		Tag:   pickOr(src, "", senderTagPaths...),
	}
	p.Label = FirstTruthyOr("", p.Name, p.Mask, p.Email, p.Tag)
	return p
}

func resolveRecipient(src gjson.Result, rail models.Rail) models.Party {
	p := models.Party{
		Name:          pickOr(src, "", recipientNamePaths...),
		Email:         pickOr(src, "", recipientEmailPaths...),
		Tag:           pickOr(src, "", recipientTagPaths...),
		Mask:          pickOr(src, "", recipientMaskPaths...),
		CryptoAddress: pickOr(src, "", recipientAddressPaths...),
		Network:       pickOr(src, "", recipientNetworkPaths...),
	}
	if p.Network == "" && p.CryptoAddress != "" {
		p.Network = DetectNetwork(p.CryptoAddress)
	}
	if rail == models.RailCrypto && p.CryptoAddress != "" {
		p.Label = MaskAddress(p.CryptoAddress)
	} else {
		p.Label = FirstTruthyOr("", p.Name, p.Tag, p.Email, p.Mask, MaskAddress(p.CryptoAddress))
	}
	return p
}

func (n *Normalizer) resolveReference(src gjson.Result, fallback string) models.ReferenceID {
	if ref, ok := pick(src, referencePaths...); ok {
		return models.AuthoritativeRef(ref)
	}
	if ref, ok := nonEmpty(fallback); ok {
		return models.AuthoritativeRef(ref)
	}
	return models.PlaceholderRef(n.newID())
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (n *Normalizer) resolveCreatedAt(src gjson.Result, fallback time.Time) time.Time {
	for _, p := range createdAtPaths {
		r := src.Get(p)
		switch r.Type {
		case gjson.String:
			for _, layout := range createdAtLayouts {
				if t, err := time.Parse(layout, strings.TrimSpace(r.Str)); err == nil {
					return t.UTC()
				}
			}
		case gjson.Number:
			if t, ok := unixTime(r.Num); ok {
				return t
			}
		}
	}
	if !fallback.IsZero() {
		return fallback.UTC()
	}
	return n.now().UTC()
}

// unixTime reads a positive epoch number as seconds, milliseconds, microseconds or
// nanoseconds by magnitude. Results outside years 1-9999 are rejected since they
// cannot be encoded as JSON timestamps.
func unixTime(n float64) (time.Time, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 || n >= 9e18 {
		return time.Time{}, false
	}
	var t time.Time
	switch {
	case n < 1e11:
		t = time.Unix(int64(n), 0)
	case n < 1e14:
		t = time.UnixMilli(int64(n))
	case n < 1e17:
		t = time.UnixMicro(int64(n))
	default:
		t = time.Unix(0, int64(n))
	}
	t = t.UTC()
	if y := t.Year(); y < 1 || y > 9999 {
		return time.Time{}, false
	}
	return t, true
}

func resolveCancelable(src gjson.Result) bool {
	r, ok := firstPresent(src, cancelPaths...)
	if !ok {
		return true
	}
	switch r.Type {
	case gjson.False:
		return false
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(r.Str)) {
		case "false", "0", "no":
			return false
		}
	case gjson.Number:
		return r.Num != 0
	}
	return true
}

const (
	placeholderPrefix   = "US-"
	placeholderLength   = 8
	placeholderAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewPlaceholderID returns "US-" followed by eight random base36 characters.
func NewPlaceholderID() string {
	var b strings.Builder
	b.WriteString(placeholderPrefix)
	radix := big.NewInt(int64(len(placeholderAlphabet)))
	for i := 0; i < placeholderLength; i++ {
		idx, err := rand.Int(rand.Reader, radix)
		if err != nil {
			// entropy failure: fall back to the clock, still base36
			digits := strings.ToUpper(strconv.FormatInt(time.Now().UnixNano(), 36))
			b.WriteByte(digits[len(digits)-1-i%len(digits)])
			continue
		}
		b.WriteByte(placeholderAlphabet[idx.Int64()])
	}
	return b.String()
}
