package resource

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentDecode(t *testing.T) {
	assert := assert.New(t)

	data := []byte(`{
		"id": "p1",
		"amount": "250000",
		"totalAllocationAmount": "250000",
		"paidFromWallet": false,
		"paymentDate": "2024-03-02T09:15:00.000Z",
		"payerId": "u1",
		"payer": {"id":"u1","email":"mary@diocese.org","name":"St Mary Parish","deanery":"North"},
		"confirmedBy": {"id":"a1","name":"Treasurer","email":"treasurer@diocese.org","role":"admin"},
		"status": "confirmed",
		"allocations": [
			{"id":"al1","paymentId":"p1","payableType":"report","payableId":"r1","amount":"200000"},
			{"id":"al2","paymentId":"p1","payableType":"levy","payableId":"l1","amount":"50000"}
		]
	}`)

	var p Payment
	assert.NoError(json.Unmarshal(data, &p))
	assert.Equal(PaymentConfirmed, p.Status)
	assert.Equal("₦250,000.00", p.Amount.Display())
	assert.Equal("St Mary Parish", p.Payer.Name)
	assert.NotNil(p.ConfirmedBy)
	assert.Equal("treasurer@diocese.org", p.ConfirmedBy.Email)

	assert.Len(p.Allocations, 2)
	assert.Equal(PayableReport, p.Allocations[0].PayableType)
	assert.Equal(PayableLevy, p.Allocations[1].PayableType)
	assert.Equal("₦50,000.00", p.Allocations[1].Amount.Display())
}
