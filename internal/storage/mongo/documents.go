package mongo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/polkiloo/printerd/internal/domain/model"
)

// orderDocument mirrors orders as the website writes them. Ids, amounts and
// timestamps arrive in more than one BSON type and are normalised in toModel.
type orderDocument struct {
	ID              bson.RawValue  `bson:"_id"`
	CreatedAt       bson.RawValue  `bson:"created_at"`
	CustomerName    string         `bson:"customer_name"`
	CustomerPhone   string         `bson:"customer_phone"`
	DeliveryAddress string         `bson:"delivery_address"`
	Items           []itemDocument `bson:"items"`
	Notes           string         `bson:"notes"`
	TotalAmount     bson.RawValue  `bson:"total_amount"`
	Printed         bool           `bson:"printed"`
	PrintTimestamp  bson.RawValue  `bson:"print_timestamp"`
	PrintRetryCount int            `bson:"print_retry_count"`
	PrintError      string         `bson:"print_error"`
}

type itemDocument struct {
	Quantity            int           `bson:"quantity"`
	MenuItemNumber      int           `bson:"menuItemNumber"`
	Name                string        `bson:"name"`
	TotalPrice          bson.RawValue `bson:"totalPrice"`
	SelectedSize        string        `bson:"selectedSize"`
	SelectedPastaType   string        `bson:"selectedPastaType"`
	SelectedSauce       string        `bson:"selectedSauce"`
	SelectedSideDish    string        `bson:"selectedSideDish"`
	SelectedIngredients []string      `bson:"selectedIngredients"`
	SelectedExtras      []string      `bson:"selectedExtras"`
	SelectedExclusions  []string      `bson:"selectedExclusions"`
}

func (d orderDocument) toModel() (model.Order, error) {
	id, err := idString(d.ID)
	if err != nil {
		return model.Order{}, err
	}
	total, err := decimalFromRaw(d.TotalAmount)
	if err != nil {
		return model.Order{}, fmt.Errorf("order %s total_amount: %w", id, err)
	}

	order := model.Order{
		ID:              id,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		DeliveryAddress: d.DeliveryAddress,
		Notes:           d.Notes,
		TotalAmount:     total,
		Printed:         d.Printed,
		PrintRetryCount: d.PrintRetryCount,
		PrintError:      d.PrintError,
	}
	order.CreatedAt, _ = timeFromRaw(d.CreatedAt)
	if ts, ok := timeFromRaw(d.PrintTimestamp); ok {
		order.PrintTimestamp = &ts
	}

	order.Items = make([]model.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		price, err := decimalFromRaw(it.TotalPrice)
		if err != nil {
			return model.Order{}, fmt.Errorf("order %s item %q totalPrice: %w", id, it.Name, err)
		}
		order.Items = append(order.Items, model.OrderItem{
			Quantity:            it.Quantity,
			MenuItemNumber:      it.MenuItemNumber,
			Name:                it.Name,
			TotalPrice:          price,
			SelectedSize:        it.SelectedSize,
			SelectedPastaType:   it.SelectedPastaType,
			SelectedSauce:       it.SelectedSauce,
			SelectedSideDish:    it.SelectedSideDish,
			SelectedIngredients: it.SelectedIngredients,
			SelectedExtras:      it.SelectedExtras,
			SelectedExclusions:  it.SelectedExclusions,
		})
	}
	return order, nil
}

type commandDocument struct {
	ID          bson.RawValue     `bson:"_id"`
	Type        model.CommandType `bson:"command_type"`
	OrderID     string            `bson:"order_id"`
	Processed   bool              `bson:"processed"`
	ProcessedAt bson.RawValue     `bson:"processed_at"`
	CreatedAt   bson.RawValue     `bson:"created_at"`
}

func (d commandDocument) toModel() (model.PrinterCommand, error) {
	id, err := idString(d.ID)
	if err != nil {
		return model.PrinterCommand{}, err
	}
	cmd := model.PrinterCommand{
		ID:        id,
		Type:      d.Type,
		OrderID:   d.OrderID,
		Processed: d.Processed,
	}
	cmd.CreatedAt, _ = timeFromRaw(d.CreatedAt)
	if ts, ok := timeFromRaw(d.ProcessedAt); ok {
		cmd.ProcessedAt = &ts
	}
	return cmd, nil
}

func idString(v bson.RawValue) (string, error) {
	switch v.Type {
	case bsontype.String:
		return v.StringValue(), nil
	case bsontype.ObjectID:
		return v.ObjectID().Hex(), nil
	case bsontype.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10), nil
	case bsontype.Int64:
		return strconv.FormatInt(v.Int64(), 10), nil
	default:
		return "", fmt.Errorf("unsupported _id type %s", v.Type)
	}
}

// idFilter matches id stored either as a string or as an ObjectID.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

func decimalFromRaw(v bson.RawValue) (decimal.Decimal, error) {
	switch v.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return decimal.Zero, nil
	case bsontype.Double:
		return decimal.NewFromFloat(v.Double()), nil
	case bsontype.Int32:
		return decimal.NewFromInt32(v.Int32()), nil
	case bsontype.Int64:
		return decimal.NewFromInt(v.Int64()), nil
	case bsontype.Decimal128:
		return decimal.NewFromString(v.Decimal128().String())
	case bsontype.String:
		return decimal.NewFromString(v.StringValue())
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %s", v.Type)
	}
}

func timeFromRaw(v bson.RawValue) (time.Time, bool) {
	switch v.Type {
	case bsontype.DateTime:
		return v.Time(), true
	case bsontype.Timestamp:
		t, _ := v.Timestamp()
		return time.Unix(int64(t), 0), true
	case bsontype.String:
		return model.ParseTimestamp(v.StringValue())
	case bsontype.Int32:
		return model.ParseTimestamp(v.Int32())
	case bsontype.Int64:
		return model.ParseTimestamp(v.Int64())
	case bsontype.Double:
		return model.ParseTimestamp(v.Double())
	case bsontype.EmbeddedDocument:
		var m map[string]any
		if err := v.Unmarshal(&m); err != nil {
			return time.Time{}, false
		}
		return model.ParseTimestamp(m)
	default:
		return time.Time{}, false
	}
}
