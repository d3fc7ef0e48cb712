package dto

import "dispatch/internal/entities"

const dayLayout = "2006-01-02"

func FromOrder(o *entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return Order{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Items:         items,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod.String(),
		Address: Address{
			Line:       o.Address.Line,
			City:       o.Address.City,
			PostalCode: o.Address.PostalCode,
			Latitude:   o.Address.Latitude,
			Longitude:  o.Address.Longitude,
		},
		Status:          o.Status.String(),
		AssignmentID:    o.AssignmentID,
		AssignedCourier: o.AssignedCourier,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
	}
}

func FromOrders(orders []entities.Order) []Order {
	res := make([]Order, 0, len(orders))
	for i := range orders {
		res = append(res, FromOrder(&orders[i]))
	}
	return res
}

func FromAssignment(a *entities.Assignment) Assignment {
	return Assignment{
		ID:         a.ID,
		OrderID:    a.OrderID,
		Status:     a.Status.String(),
		AcceptedBy: a.AcceptedBy,
		AcceptedAt: a.AcceptedAt,
		CreatedAt:  a.CreatedAt,
	}
}

func FromAssignments(assignments []entities.Assignment) []Assignment {
	res := make([]Assignment, 0, len(assignments))
	for i := range assignments {
		res = append(res, FromAssignment(&assignments[i]))
	}
	return res
}

func FromCandidates(candidates []entities.CourierSummary) []AvailableCourier {
	res := make([]AvailableCourier, 0, len(candidates))
	for _, c := range candidates {
		res = append(res, AvailableCourier{
			ID:         c.ID,
			Name:       c.Name,
			Mobile:     c.Mobile,
			Latitude:   c.Point.Latitude,
			Longitude:  c.Point.Longitude,
			DistanceKm: c.DistanceKm,
		})
	}
	return res
}

func FromStatusChange(change *entities.StatusChange, noCourierMessage string) OrderStatusResponse {
	res := OrderStatusResponse{
		OrderID:           change.Order.ID,
		Status:            change.Order.Status.String(),
		AssignmentID:      change.Order.AssignmentID,
		AvailableCouriers: []AvailableCourier{},
	}

	if change.Dispatch != nil {
		res.AssignmentID = &change.Dispatch.Assignment.ID
		res.AvailableCouriers = FromCandidates(change.Dispatch.Candidates)
	}
	if change.NoCourier {
		res.Message = noCourierMessage
	}
	return res
}

func FromStats(stats *entities.CourierStats) CourierStats {
	week := make([]DailyCount, 0, len(stats.LastWeek))
	for _, d := range stats.LastWeek {
		week = append(week, DailyCount{Day: d.Day.Format(dayLayout), Count: d.Count})
	}
	return CourierStats{
		DeliveredToday: stats.DeliveredToday,
		LastWeek:       week,
	}
}
