package order

import "dispatch/internal/entities"

func ToDomain(o *OrderDB) *entities.Order {
	if o == nil {
		return nil
	}

	items := make([]entities.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, entities.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return &entities.Order{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Items:         items,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: entities.PaymentMethodType(o.PaymentMethod),
		Address: entities.DeliveryAddress{
			Line:       o.Address.Line,
			City:       o.Address.City,
			PostalCode: o.Address.PostalCode,
			Latitude:   o.Address.Latitude,
			Longitude:  o.Address.Longitude,
		},
		Status:           entities.OrderStatusType(o.Status),
		AssignmentID:     o.AssignmentID,
		AssignedCourier:  o.AssignedCourier,
		VerificationCode: o.VerificationCode,
		CodeIssuedAt:     o.CodeIssuedAt,
		CodeAttempts:     o.CodeAttempts,
		DeliveredAt:      o.DeliveredAt,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func ToDomainList(orders []OrderDB) []entities.Order {
	res := make([]entities.Order, 0, len(orders))
	for i := range orders {
		res = append(res, *ToDomain(&orders[i]))
	}
	return res
}

func ToDailyCounts(rows []DailyCountDB) []entities.DailyCount {
	res := make([]entities.DailyCount, 0, len(rows))
	for _, r := range rows {
		res = append(res, entities.DailyCount{Day: r.Day, Count: r.Count})
	}
	return res
}
