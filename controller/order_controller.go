package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/SaiNageswarS/health-assistant-rag/appconfig"
	"github.com/SaiNageswarS/health-assistant-rag/db"
	"github.com/SaiNageswarS/health-assistant-rag/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

const orderNumberLayout = "20060102150405"

type OrderStore interface {
	Save(ctx context.Context, order db.OrderModel) error
}

type mongoOrderStore struct {
	orders odm.OdmCollectionInterface[db.OrderModel]
}

func (s mongoOrderStore) Save(ctx context.Context, order db.OrderModel) error {
	_, err := async.Await(s.orders.Save(ctx, order))
	return err
}

// OrderController accepts medicine orders. It is independent of the routing
// pipeline.
type OrderController struct {
	store OrderStore
	now   func() time.Time
}

func ProvideOrderController(cfg *appconfig.AppConfig, mongo odm.MongoClient) *OrderController {
	orders := odm.CollectionOf[db.OrderModel](mongo, cfg.OrdersDatabase)
	return NewOrderController(mongoOrderStore{orders: orders})
}

func NewOrderController(store OrderStore) *OrderController {
	return &OrderController{store: store, now: time.Now}
}

func (oc *OrderController) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("Failed to decode order", zap.Error(err))
		writeError(w, codes.InvalidArgument, "Invalid request payload")
		return
	}

	if field := missingOrderField(req); field != "" {
		writeError(w, codes.InvalidArgument, "Missing field: "+field)
		return
	}

	var medicine any
	if err := json.Unmarshal(req.Medicine, &medicine); err != nil {
		writeError(w, codes.InvalidArgument, "Invalid request payload")
		return
	}

	now := oc.now()
	order := db.OrderModel{
		OrderID:          uuid.NewString(),
		Name:             *req.Name,
		Address:          *req.Address,
		CreditCardNumber: lastFour(*req.CreditCardNumber),
		Medicine:         medicine,
		OrderNumber:      now.Format(orderNumberLayout),
		Timestamp:        now,
	}

	if err := oc.store.Save(r.Context(), order); err != nil {
		logger.Error("Failed to save order", zap.Error(err))
		writeError(w, codes.Internal, "Internal Server Error")
		return
	}

	logger.Info("Order submitted", zap.String("orderNumber", order.OrderNumber))
	writeJSON(w, http.StatusCreated, model.OrderResponse{
		Message:     "Order submitted successfully",
		OrderNumber: order.OrderNumber,
	})
}

func missingOrderField(req model.OrderRequest) string {
	switch {
	case req.Name == nil:
		return "name"
	case req.Address == nil:
		return "address"
	case req.CreditCardNumber == nil:
		return "creditCardNumber"
	case len(req.Medicine) == 0:
		return "medicine"
	default:
		return ""
	}
}

func lastFour(card string) string {
	if len(card) <= 4 {
		return card
	}
	return card[len(card)-4:]
}

func (oc *OrderController) Routes() []server.Route {
	return []server.Route{
		{
			Pattern: "/submit_order/",
			Method:  http.MethodPost,
			Handler: oc.SubmitOrder,
		},
	}
}
