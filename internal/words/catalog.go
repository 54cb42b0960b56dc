// Package words supplies the playable vocabulary: rare Italian words
// with their part of speech and genuine definition.
package words

import (
	"errors"
	"math/rand"

	"apocrifo/internal/db"
	"apocrifo/internal/game"

	"gorm.io/gorm"
)

// Catalog picks random active words from Postgres. Without a database
// it falls back to the embedded default list so the server still runs.
type Catalog struct {
	db       *gorm.DB
	fallback []game.Word
}

func New(conn *gorm.DB) *Catalog {
	return &Catalog{db: conn, fallback: defaultWords}
}

// PickRandomActive draws one active word uniformly at random.
func (c *Catalog) PickRandomActive() (game.Word, error) {
	if c.db == nil {
		if len(c.fallback) == 0 {
			return game.Word{}, game.ErrNoWordsAvailable
		}
		return c.fallback[rand.Intn(len(c.fallback))], nil
	}
	var w db.Word
	err := c.db.Where("active = ?", true).Order("RANDOM()").First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.Word{}, game.ErrNoWordsAvailable
	}
	if err != nil {
		return game.Word{}, err
	}
	return game.Word{
		Lemma:        w.Lemma,
		PartOfSpeech: w.PartOfSpeech,
		Definition:   w.Definition,
	}, nil
}

// Seed inserts the default words, skipping lemmas already present.
func (c *Catalog) Seed() error {
	if c.db == nil {
		return nil
	}
	for _, w := range c.fallback {
		record := db.Word{
			Lemma:        w.Lemma,
			PartOfSpeech: w.PartOfSpeech,
			Definition:   w.Definition,
			Active:       true,
		}
		if err := c.db.Where(db.Word{Lemma: w.Lemma}).FirstOrCreate(&record).Error; err != nil {
			return err
		}
	}
	return nil
}

var defaultWords = []game.Word{
	{Lemma: "BISLACCO", PartOfSpeech: "aggettivo", Definition: "Strambo, bizzarro, che ha comportamenti strani o insoliti"},
	{Lemma: "REDIMERE", PartOfSpeech: "verbo", Definition: "Liberare da una condizione negativa, riscattare"},
	{Lemma: "SGANGHERATO", PartOfSpeech: "aggettivo", Definition: "Sconnesso, mal funzionante, che non sta insieme bene"},
	{Lemma: "PERIPLO", PartOfSpeech: "sostantivo", Definition: "Lungo viaggio intorno a qualcosa, specialmente per mare"},
	{Lemma: "LINDO", PartOfSpeech: "aggettivo", Definition: "Estremamente pulito e ordinato"},
	{Lemma: "ABBACINARE", PartOfSpeech: "verbo", Definition: "Accecare temporaneamente con una luce intensa"},
	{Lemma: "SALMASTRO", PartOfSpeech: "aggettivo", Definition: "Che sa di sale, tipico dell'acqua di mare"},
	{Lemma: "DIATRIBA", PartOfSpeech: "sostantivo", Definition: "Discussione polemica, aspra e prolungata"},
}
