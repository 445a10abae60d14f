package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/validator"
)

func address() model.Address {
	return model.Address{Line1: "12 Forge Street", City: "Germiston", Province: "Gauteng", PostalCode: "1422"}
}

func fields(issues []validator.FieldIssue) []string {
	out := []string{}
	for _, i := range issues {
		out = append(out, i.Field)
	}
	return out
}

func TestIsCheckoutReady_BuildsUpStepByStep(t *testing.T) {
	d := model.NewCheckoutDraft()
	d.Email = "buyer@example.co.za"
	assert.False(t, validator.IsCheckoutReady(d))
	assert.Equal(t, []string{validator.FieldFirstName, validator.FieldDeliveryAddress}, fields(validator.CheckoutIssues(d)))

	d.FirstName = "Thandi"
	assert.False(t, validator.IsCheckoutReady(d))

	d.Address = address()
	assert.True(t, validator.IsCheckoutReady(d))

	d.SameAsDelivery = false
	assert.False(t, validator.IsCheckoutReady(d))
	assert.Equal(t, []string{validator.FieldBillingAddress}, fields(validator.CheckoutIssues(d)))

	d.BillingAddress = address()
	assert.True(t, validator.IsCheckoutReady(d))
}

func TestCheckoutIssues_EmptyDraft(t *testing.T) {
	issues := validator.CheckoutIssues(model.NewCheckoutDraft())
	assert.Equal(t, []string{validator.FieldEmail, validator.FieldFirstName, validator.FieldDeliveryAddress}, fields(issues))
	assert.Equal(t, "email is required", issues[0].Message)
}

func TestCheckoutIssues_ReadyIsNonNilEmpty(t *testing.T) {
	d := model.NewCheckoutDraft()
	d.Email = "buyer@example.co.za"
	d.FirstName = "Thandi"
	d.Address = address()

	issues := validator.CheckoutIssues(d)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestCheckoutIssues_WhitespaceIsBlank(t *testing.T) {
	d := model.NewCheckoutDraft()
	d.Email = "buyer@example.co.za"
	d.FirstName = "   "
	d.Address = address()
	d.Address.City = "\t"

	assert.Equal(t, []string{validator.FieldFirstName, validator.FieldDeliveryAddress}, fields(validator.CheckoutIssues(d)))
}

func TestIsEmailLike(t *testing.T) {
	ok := []string{"a@b.co", "buyer@example.co.za", "first.last+tag@shop.io"}
	ng := []string{"", "plain", "a@b", "@b.co", "a@.co", "a b@c.co", "a@b c.co", "a@@b.co"}

	for _, s := range ok {
		assert.True(t, validator.IsEmailLike(s), s)
	}
	for _, s := range ng {
		assert.False(t, validator.IsEmailLike(s), s)
	}
}

func TestCheckoutIssues_InvalidEmail(t *testing.T) {
	d := model.NewCheckoutDraft()
	d.Email = "not-an-email"

	issues := validator.CheckoutIssues(d)
	assert.Equal(t, validator.FieldEmail, issues[0].Field)
	assert.Equal(t, "email is invalid", issues[0].Message)
}

func TestIsAddressValid(t *testing.T) {
	assert.True(t, validator.IsAddressValid(address()))

	for _, clear := range []func(a *model.Address){
		func(a *model.Address) { a.Line1 = "" },
		func(a *model.Address) { a.City = " " },
		func(a *model.Address) { a.Province = "" },
		func(a *model.Address) { a.PostalCode = "" },
	} {
		a := address()
		clear(&a)
		assert.False(t, validator.IsAddressValid(a))
	}

	// 任意項目は不要
	a := address()
	a.Line2, a.Suburb, a.Country = "", "", ""
	assert.True(t, validator.IsAddressValid(a))
}
