package store

import (
	"encoding/json"
	"errors"

	"github.com/law-makers/seocrawl/pkg/models"
)

// ErrNotAPage is returned by DecodePage for entries that do not hold a
// saved fetch result.
var ErrNotAPage = errors.New("store entry is not a saved page")

// EncodePage serializes a fetch result for saving. The final URL, status,
// headers and backend metadata travel with the markup so a page loaded
// from the store is analysed exactly like the live one.
func EncodePage(data *models.PageData) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodePage reverses EncodePage.
func DecodePage(s string) (*models.PageData, error) {
	var data models.PageData
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, errors.Join(ErrNotAPage, err)
	}
	if data.StatusCode == 0 || data.HTML == "" {
		return nil, ErrNotAPage
	}
	return &data, nil
}
