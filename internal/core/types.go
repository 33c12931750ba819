package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Use-in-recipes attribute values.
const (
	UseAnywhere           = 0
	UseAsRegularFood      = 1
	UseAsRecipeIngredient = 2
)

// FCTReference points at one record of a food composition table.
type FCTReference struct {
	TableID  string `json:"tableId"`
	RecordID string `json:"recordId"`
}

// FoodDescription is one description variant of a food: the English text
// stored on the global food and the text shown in the destination locale.
type FoodDescription struct {
	English string `json:"english"`
	Local   string `json:"local"`
}

// FoodAttributes are the inheritable food attributes. Nil means inherit.
type FoodAttributes struct {
	SameAsBeforeOption *bool `json:"sameAsBeforeOption,omitempty"`
	ReadyMealOption    *bool `json:"readyMealOption,omitempty"`
	ReasonableAmount   *int  `json:"reasonableAmount,omitempty"`
	UseInRecipes       *int  `json:"useInRecipes,omitempty"`
}

// NewFood is a global food record to be created.
type NewFood struct {
	Code               string         `json:"code"`
	EnglishDescription string         `json:"englishDescription"`
	FoodGroupID        int            `json:"foodGroupId"`
	Attributes         FoodAttributes `json:"attributes"`
	Categories         []string       `json:"categories"`
}

// FoodCopy copies a global food (attributes and categories included) under a new code.
type FoodCopy struct {
	SourceCode     string `json:"sourceCode"`
	NewCode        string `json:"newCode"`
	NewDescription string `json:"newDescription"`
}

// PortionSizeParameter is one named parameter of a portion size method.
type PortionSizeParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PortionSizeMethod describes how a respondent estimates the amount eaten.
type PortionSizeMethod struct {
	Method           string                 `json:"method"`
	Description      string                 `json:"description"`
	ImageURL         string                 `json:"imageUrl"`
	UseForRecipes    bool                   `json:"useForRecipes"`
	ConversionFactor float64                `json:"conversionFactor"`
	Parameters       []PortionSizeParameter `json:"parameters"`
}

// Param returns the value of the named parameter.
func (m PortionSizeMethod) Param(name string) (string, bool) {
	for _, p := range m.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// AssociatedFood is a follow-up prompt attached to a local food.
// Exactly one of FoodCode and CategoryCode is set.
type AssociatedFood struct {
	FoodCode     *string `json:"foodCode,omitempty"`
	CategoryCode *string `json:"categoryCode,omitempty"`
	PromptText   string  `json:"promptText"`
	LinkAsMain   bool    `json:"linkAsMain"`
	GenericName  string  `json:"genericName"`
}

// NewLocalFood is the locale overlay written for one food.
type NewLocalFood struct {
	Code               string              `json:"code"`
	LocalDescription   *string             `json:"localDescription,omitempty"`
	FCTRefs            []FCTReference      `json:"fctRefs"`
	PortionSizeMethods []PortionSizeMethod `json:"portionSizeMethods"`
	AssociatedFoods    []AssociatedFood    `json:"associatedFoods"`
	Brands             []string            `json:"brands"`
}

// LocalCopy copies the source locale overlay of SourceCode to DestCode in the
// destination locale, replacing the description. A non-nil FCTOverride
// replaces the copied nutrient mapping.
type LocalCopy struct {
	SourceCode       string        `json:"sourceCode"`
	DestCode         string        `json:"destCode"`
	LocalDescription string        `json:"localDescription"`
	FCTOverride      *FCTReference `json:"fctOverride,omitempty"`
}

// Locale is a country/language configuration.
type Locale struct {
	ID                 string  `json:"id"`
	EnglishName        string  `json:"englishName"`
	LocalName          string  `json:"localName"`
	RespondentLanguage string  `json:"respondentLanguage"`
	AdminLanguage      string  `json:"adminLanguage"`
	FlagCode           string  `json:"flagCode"`
	PrototypeLocale    *string `json:"prototypeLocale,omitempty"`
	TextDirection      string  `json:"textDirection"`
}

// InheritsFrom reports whether the locale's prototype is sourceID.
func (l *Locale) InheritsFrom(sourceID string) bool {
	return l.PrototypeLocale != nil && *l.PrototypeLocale == sourceID
}

// RunRecord is the audit row written with every committed derivation.
type RunRecord struct {
	ID            string    `json:"id"`
	Format        string    `json:"format"`
	SourceLocale  string    `json:"sourceLocale"`
	DestLocale    string    `json:"destLocale"`
	FileName      string    `json:"fileName"`
	FoodsCreated  int       `json:"foodsCreated"`
	FoodsCopied   int       `json:"foodsCopied"`
	LocalCreated  int       `json:"localCreated"`
	LocalCopied   int       `json:"localCopied"`
	FoodsIncluded int       `json:"foodsIncluded"`
	IPAddress     string    `json:"ipAddress,omitempty"`
	UserAgent     string    `json:"userAgent,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FoodStore is the transactional persistence used by a derivation run.
// Every mutating call receives the transaction handle opened by WithTx.
type FoodStore interface {
	WithTx(ctx context.Context, fn func(tx DBTX) error) error

	GetDuplicateCodes(ctx context.Context, db DBTX, codes []string) (map[string]struct{}, error)
	CreateFoods(ctx context.Context, tx DBTX, foods []NewFood) error
	CopyFoods(ctx context.Context, tx DBTX, copies []FoodCopy) error
	CreateLocalFoods(ctx context.Context, tx DBTX, foods []NewLocalFood, localeID string) error
	CopyLocalFoods(ctx context.Context, tx DBTX, sourceLocale, destLocale string, copies []LocalCopy) error
	CopyCategories(ctx context.Context, tx DBTX, sourceLocale, destLocale string) error
	AddFoodsToLocale(ctx context.Context, tx DBTX, codes []string, localeID string) error
	RecordRun(ctx context.Context, tx DBTX, run RunRecord) error
}

// LocaleCatalog resolves locales. A nil locale with a nil error means not found.
type LocaleCatalog interface {
	GetLocale(ctx context.Context, id string) (*Locale, error)
}

// ReferenceCatalogs are the read-only catalogs actions are validated against.
type ReferenceCatalogs interface {
	AsServedSetIDs(ctx context.Context) (map[string]struct{}, error)
	GuideImageIDs(ctx context.Context) (map[string]struct{}, error)
	DrinkwareSetIDs(ctx context.Context) (map[string]struct{}, error)
	MissingFCTRecords(ctx context.Context, refs []FCTReference) ([]FCTReference, error)
}

// Store combines everything a Service needs.
type Store interface {
	FoodStore
	LocaleCatalog
	ReferenceCatalogs

	// Pool is the non-transactional handle used for read-only lookups.
	Pool() DBTX
}
