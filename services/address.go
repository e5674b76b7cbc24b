package services

import (
	"strings"

	"lendingdesk/models"
	"lendingdesk/utils"
)

// AddressInput - данные почтового адреса
type AddressInput struct {
	PostalCode string `json:"postalCode" validate:"required,postalcode"`
	Street     string `json:"street" validate:"required,max=255"`
	Number     string `json:"number" validate:"max=32"`
	Complement string `json:"complement" validate:"max=255"`
	District   string `json:"district" validate:"max=120"`
	City       string `json:"city" validate:"required,max=120"`
	State      string `json:"state" validate:"required,len=2,alpha"`
}

// toAddress приводит провалидированный ввод к каноническому виду
func (in AddressInput) toAddress() models.Address {
	// postalcode уже проверен валидатором
	postal, _ := utils.NormalizePostalCode(in.PostalCode)
	return models.Address{
		PostalCode: postal,
		Street:     utils.NormalizeText(in.Street),
		Number:     strings.TrimSpace(in.Number),
		Complement: utils.NormalizeText(in.Complement),
		District:   utils.NormalizeText(in.District),
		City:       utils.NormalizeText(in.City),
		State:      strings.ToUpper(strings.TrimSpace(in.State)),
	}
}

// addressColumns - колонки, перезаписываемые при upsert адреса
var addressColumns = []string{"postal_code", "street", "number", "complement", "district", "city", "state", "updated_at"}
