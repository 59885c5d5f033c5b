package handler

import (
	"fmt"
	"net/http"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/core/service"
)

// auth

func (h *HTTPHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.svc.Auth.Signup(r.Context(), service.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		ShopName: req.ShopName,
		Location: req.Location,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Signup successful", user.ID)
}

func (h *HTTPHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := h.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: toUserDTO(session.User), Token: session.Token})
}

func (h *HTTPHandler) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Auth.SendOTP(r.Context(), req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "OTP sent to your email", 0)
}

func (h *HTTPHandler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !decode(w, r, &req) {
		return
	}
	session, err := h.svc.Auth.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{User: toUserDTO(session.User), Token: session.Token})
}

// products

func (h *HTTPHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(products, toProductDTO))
}

func (h *HTTPHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Products.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

func (h *HTTPHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductDTO
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Products.Add(r.Context(), req.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

// inventory

func (h *HTTPHandler) listInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.Inventory.ListInventory(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(rows, toInventoryDTO))
}

func (h *HTTPHandler) addInventory(w http.ResponseWriter, r *http.Request) {
	var req InventoryRequest
	if !decode(w, r, &req) {
		return
	}
	created, err := h.svc.Inventory.AddOrRestock(r.Context(), req.RetailerID, req.ProductID, req.Price, req.Stock)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if created {
		writeMessage(w, "Added to inventory", 0)
		return
	}
	writeMessage(w, "Inventory updated", 0)
}

// orders

func (h *HTTPHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !decode(w, r, &req) {
		return
	}
	lines := make([]domain.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, domain.OrderLine{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}

	order, err := h.svc.Orders.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		CustomerID:     req.CustomerID,
		RetailerID:     req.RetailerID,
		TotalAmount:    req.TotalAmount,
		PaymentMode:    req.PaymentMode,
		Items:          lines,
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, fmt.Sprintf("Order placed successfully. ID: %d", order.ID), order.ID)
}

func (h *HTTPHandler) ordersByCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.Orders.ListByCustomer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(orders, toOrderDTO))
}

func (h *HTTPHandler) ordersByRetailer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.Orders.ListByRetailer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(orders, toOrderDTO))
}

func (h *HTTPHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	if err := h.svc.Orders.UpdateOrderStatus(r.Context(), id, status); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Order status updated to "+status, id)
}

// wholesale

func (h *HTTPHandler) requestStock(w http.ResponseWriter, r *http.Request) {
	var req WholesaleRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.svc.Wholesale.RequestStock(r.Context(), req.RetailerID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Stock request sent to Wholesaler", order.ID)
}

func (h *HTTPHandler) approveRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Wholesale.ApproveRequest(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Request Approved & Inventory Updated!", id)
}

func (h *HTTPHandler) pendingRequests(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Wholesale.ListPending(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(orders, toWholesaleDTO))
}

func (h *HTTPHandler) retailerRequests(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.Wholesale.ListByRetailer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(orders, toWholesaleDTO))
}

// feedback

func (h *HTTPHandler) addFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !decode(w, r, &req) {
		return
	}
	fb, err := h.svc.Feedback.AddFeedback(r.Context(), service.AddFeedbackRequest{
		ProductID:  req.ProductID,
		CustomerID: req.CustomerID,
		OrderID:    req.OrderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Feedback submitted successfully", fb.ID)
}

func (h *HTTPHandler) feedbackByProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Feedback.ListByProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toFeedbackDTO))
}

func (h *HTTPHandler) feedbackByRetailer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	list, err := h.svc.Feedback.ListByRetailer(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toFeedbackDTO))
}
