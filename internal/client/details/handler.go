package details

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/models"
)

// ErrUnsupportedCategory возвращается для категории без observer'а.
// Ошибка явная: молчаливый пропуск маскировал бы рассинхронизацию
// набора категорий и таблицы observers.
var ErrUnsupportedCategory = errors.New("no details observer for item category")

// Field - одно отображаемое поле item'а.
// Для чувствительных полей Value пусто, значение живёт в Hidden.
type Field struct {
	Hidden models.HiddenState
	Label  string
	Value  string
}

// ItemDetails - проекция item'а для отображения
type ItemDetails struct {
	Title    string
	Note     string
	Category models.ItemCategory
	Fields   []Field
}

// Observer строит проекцию отображения для одной категории items
type Observer interface {
	Observe(c *crypto.Context, contents *models.ItemContents) (*ItemDetails, error)
}

type contentDecrypter interface {
	DecryptContents(ctx context.Context, item *models.Item) (*models.ItemContents, error)
}

// Handler диспетчеризует построение деталей item'а по категории
// через таблицу observers
type Handler struct {
	items     contentDecrypter
	provider  *crypto.Provider
	observers map[models.ItemCategory]Observer
}

// NewHandler создает handler с observers для всех известных категорий
func NewHandler(items contentDecrypter, provider *crypto.Provider) *Handler {
	return &Handler{
		items:    items,
		provider: provider,
		observers: map[models.ItemCategory]Observer{
			models.ItemCategoryLogin:      loginObserver{},
			models.ItemCategoryAlias:      aliasObserver{},
			models.ItemCategoryNote:       noteObserver{},
			models.ItemCategoryIdentity:   identityObserver{},
			models.ItemCategoryCreditCard: creditCardObserver{},
		},
	}
}

// ObserveDetails расшифровывает item и строит его проекцию отображения
func (h *Handler) ObserveDetails(ctx context.Context, item *models.Item) (*ItemDetails, error) {
	contents, err := h.items.DecryptContents(ctx, item)
	if err != nil {
		return nil, err
	}

	observer, ok := h.observers[contents.Category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCategory, contents.Category)
	}

	var result *ItemDetails
	err = h.provider.WithContext(func(c *crypto.Context) error {
		result, err = observer.Observe(c, contents)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type loginObserver struct{}

func (loginObserver) Observe(c *crypto.Context, contents *models.ItemContents) (*ItemDetails, error) {
	login := contents.Login
	if login == nil {
		return nil, fmt.Errorf("login item has no login content")
	}

	password, err := ConcealString(c, login.Password)
	if err != nil {
		return nil, err
	}

	fields := []Field{
		{Label: "username", Value: login.Username},
		{Label: "password", Hidden: password},
	}
	if login.TOTPURI != "" {
		totp, err := ConcealString(c, login.TOTPURI)
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Label: "totp", Hidden: totp})
	}
	for _, u := range login.URLs {
		fields = append(fields, Field{Label: "url", Value: u})
	}

	return &ItemDetails{
		Title:    contents.Title,
		Note:     contents.Note,
		Category: contents.Category,
		Fields:   fields,
	}, nil
}

type aliasObserver struct{}

func (aliasObserver) Observe(_ *crypto.Context, contents *models.ItemContents) (*ItemDetails, error) {
	alias := contents.Alias
	if alias == nil {
		return nil, fmt.Errorf("alias item has no alias content")
	}
	return &ItemDetails{
		Title:    contents.Title,
		Note:     contents.Note,
		Category: contents.Category,
		Fields: []Field{
			{Label: "alias", Value: alias.AliasEmail},
			{Label: "prefix", Value: alias.Prefix},
			{Label: "suffix", Value: alias.Suffix},
		},
	}, nil
}

type noteObserver struct{}

func (noteObserver) Observe(_ *crypto.Context, contents *models.ItemContents) (*ItemDetails, error) {
	return &ItemDetails{
		Title:    contents.Title,
		Note:     contents.Note,
		Category: contents.Category,
	}, nil
}

type identityObserver struct{}

func (identityObserver) Observe(_ *crypto.Context, contents *models.ItemContents) (*ItemDetails, error) {
	identity := contents.Identity
	if identity == nil {
		return nil, fmt.Errorf("identity item has no identity content")
	}
	return &ItemDetails{
		Title:    contents.Title,
		Note:     contents.Note,
		Category: contents.Category,
		Fields: []Field{
			{Label: "full name", Value: identity.FullName},
			{Label: "email", Value: identity.Email},
			{Label: "phone", Value: identity.Phone},
			{Label: "address", Value: identity.Address},
		},
	}, nil
}

type creditCardObserver struct{}

func (creditCardObserver) Observe(c *crypto.Context, contents *models.ItemContents) (*ItemDetails, error) {
	card := contents.CreditCard
	if card == nil {
		return nil, fmt.Errorf("credit card item has no card content")
	}

	number, err := ConcealString(c, card.Number)
	if err != nil {
		return nil, err
	}
	cvv, err := ConcealString(c, card.CVV)
	if err != nil {
		return nil, err
	}
	pin, err := ConcealString(c, card.PIN)
	if err != nil {
		return nil, err
	}

	return &ItemDetails{
		Title:    contents.Title,
		Note:     contents.Note,
		Category: contents.Category,
		Fields: []Field{
			{Label: "card holder", Value: card.CardHolder},
			{Label: "number", Hidden: number},
			{Label: "expiry", Value: card.Expiry},
			{Label: "cvv", Hidden: cvv},
			{Label: "pin", Hidden: pin},
		},
	}, nil
}
