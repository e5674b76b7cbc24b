package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lendingdesk/utils"

	"github.com/beevik/etree"
)

// PostalAddress - адрес, найденный по CEP
type PostalAddress struct {
	PostalCode string `json:"postalCode"`
	Street     string `json:"street"`
	Complement string `json:"complement"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
}

// PostalCodeService ищет адрес по CEP через XML API ViaCEP
type PostalCodeService struct {
	baseURL string
	client  *http.Client
}

func NewPostalCodeService(baseURL string, timeout time.Duration) *PostalCodeService {
	return &PostalCodeService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Lookup нормализует CEP ("01310-100" -> "01310100") до внешнего вызова и возвращает адрес.
// Неизвестный CEP - ошибка валидации, сбой внешнего сервиса - внутренняя ошибка.
func (s *PostalCodeService) Lookup(ctx context.Context, raw string) (*PostalAddress, error) {
	start := time.Now()
	cep, err := utils.NormalizePostalCode(raw)
	if err != nil {
		return nil, NewValidationError("invalid postal code",
			utils.FieldError{Field: "code", Message: "must be a postal code with up to 8 digits"})
	}

	address, err := s.fetch(ctx, cep)
	utils.LogOperation("postal_code_lookup", start, err)
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *PostalCodeService) fetch(ctx context.Context, cep string) (*PostalAddress, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/ws/%s/xml/", s.baseURL, cep), nil)
	if err != nil {
		return nil, NewInternal("failed to build postal code request", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, NewInternal("postal code service unavailable", err)
	}
	defer resp.Body.Close()

	// ViaCEP отвечает 400 на синтаксически неверный CEP
	if resp.StatusCode == http.StatusBadRequest {
		return nil, NewValidationError("postal code not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewInternal("postal code service unavailable", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, NewInternal("failed to read postal code response", err)
	}
	return parsePostalXML(body, cep)
}

// parsePostalXML разбирает ответ вида <xmlcep><cep>01310-100</cep><logradouro>...</logradouro>...</xmlcep>
func parsePostalXML(body []byte, cep string) (*PostalAddress, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, NewInternal("invalid postal code response", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, NewInternal("invalid postal code response", errors.New("empty document"))
	}
	if root.SelectElement("erro") != nil {
		return nil, NewValidationError("postal code not found")
	}

	text := func(tag string) string {
		if el := root.SelectElement(tag); el != nil {
			return strings.TrimSpace(el.Text())
		}
		return ""
	}

	address := &PostalAddress{
		PostalCode: cep,
		Street:     text("logradouro"),
		Complement: text("complemento"),
		District:   text("bairro"),
		City:       text("localidade"),
		State:      text("uf"),
	}
	if returned := utils.DigitsOnly(text("cep")); returned != "" {
		address.PostalCode = returned
	}
	if address.City == "" && address.State == "" {
		return nil, NewValidationError("postal code not found")
	}
	return address, nil
}
