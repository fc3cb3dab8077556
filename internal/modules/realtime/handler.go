package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"agrirent/internal/domain"
	"agrirent/internal/modules/booking"
	"agrirent/internal/pkg/jwt"
	"agrirent/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Booker runs one booking attempt.
type Booker interface {
	AttemptBooking(ctx context.Context, req domain.BookingRequest) (*booking.Confirmation, error)
}

// Broadcaster forwards a room event to other instances.
type Broadcaster interface {
	Publish(ctx context.Context, district string, event Event) error
}

type Options struct {
	// Verifier checks ?token=; nil trusts the user_id sent with each request.
	Verifier       *jwt.Service
	SendBuffer     int
	MessageRate    float64
	MessageBurst   int
	AllowedOrigins []string
}

type Handler struct {
	hub      *Hub
	booker   Booker
	relay    Broadcaster
	opts     Options
	upgrader websocket.Upgrader

	// in-flight booking goroutines, waited for on shutdown
	inflight sync.WaitGroup
}

func NewHandler(hub *Hub, booker Booker, relay Broadcaster, opts Options) *Handler {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 256
	}
	h := &Handler{
		hub:    hub,
		booker: booker,
		relay:  relay,
		opts:   opts,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin allows non-browser clients and, when origins are configured,
// only those browser origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range h.opts.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// ServeWS handles GET /ws/rental?token=JWT
func (h *Handler) ServeWS(c *gin.Context) {
	var userID string
	if h.opts.Verifier != nil {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Token is required. Use ?token=YOUR_JWT_TOKEN"})
			return
		}
		claims, err := h.opts.Verifier.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			return
		}
		userID = claims.Subject
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	var limiter *rate.Limiter
	if h.opts.MessageRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.opts.MessageRate), h.opts.MessageBurst)
	}
	client := NewClient(conn, userID, h.opts.SendBuffer, limiter)
	h.hub.Register(client)
	logger.Info().Str("client_id", client.id).Str("user_id", userID).Msg("client connected")

	go client.writePump()
	h.readPump(client)
}

// readPump blocks until the connection drops.
func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Leave(c)
		c.conn.Close()
		logger.Info().Str("client_id", c.id).Msg("client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Str("client_id", c.id).Msg("websocket read error")
			}
			return
		}

		// any inbound frame proves liveness
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.limiter.Allow() {
			h.hub.Send(c, NewErrorEvent("RATE_LIMITED", "Too many messages, slow down"))
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.hub.Send(c, NewErrorEvent("INVALID_JSON", "Failed to parse message"))
			continue
		}
		h.dispatch(c, msg)
	}
}

func (h *Handler) dispatch(c *Client, msg ClientMessage) {
	switch msg.Type {
	case MsgJoinRoom, MsgJoinRentalRoom:
		h.handleJoin(c, msg.Data)
	case MsgRequestBooking:
		h.handleRequestBooking(c, msg.Data)
	case MsgPing:
		h.hub.Send(c, NewPongEvent())
	default:
		h.hub.Send(c, NewErrorEvent("UNKNOWN_TYPE", "Unknown message type: "+msg.Type))
	}
}

func (h *Handler) handleJoin(c *Client, data json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil || strings.TrimSpace(p.District) == "" {
		h.hub.Send(c, NewErrorEvent("INVALID_DISTRICT", "district is required"))
		return
	}

	room, ok := h.hub.Join(c, p.District)
	if !ok {
		return
	}
	logger.Info().Str("client_id", c.id).Str("room", room).Msg("client joined room")
	h.hub.Send(c, NewRoomJoinedEvent(room))
}

func (h *Handler) handleRequestBooking(c *Client, data json.RawMessage) {
	var req domain.BookingRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.hub.Send(c, NewBookingErrorEvent("Invalid booking request payload"))
		return
	}

	if c.userID != "" {
		if req.UserID == "" {
			req.UserID = c.userID
		} else if req.UserID != c.userID {
			h.hub.Send(c, NewBookingErrorEvent("user_id does not match the authenticated user"))
			return
		}
	}

	// Each attempt runs on its own so a slow store never stalls this
	// connection's reads, and attempts on different slots stay independent.
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.book(c, req)
	}()
}

// book runs one attempt and reports it. The attempt is not tied to the
// connection: a client that drops mid-attempt still gets its slot if the
// update committed, and the room is still told.
func (h *Handler) book(c *Client, req domain.BookingRequest) {
	conf, err := h.booker.AttemptBooking(context.Background(), req)
	switch {
	case err == nil:
	case errors.Is(err, booking.ErrUnavailable):
		h.hub.Send(c, NewBookingFailedEvent("Slot already booked or unavailable."))
		return
	case errors.Is(err, booking.ErrValidation):
		h.hub.Send(c, NewBookingErrorEvent(err.Error()))
		return
	default:
		h.hub.Send(c, NewBookingErrorEvent("Booking could not be processed, please try again"))
		return
	}

	h.hub.Send(c, NewBookingConfirmedEvent(conf))

	if conf.District == "" {
		logger.Warn().Str("equipment_id", conf.EquipmentID).Msg("booked equipment has no district, room not notified")
		return
	}

	event := NewSlotUpdatedEvent(conf.EquipmentID, conf.Date, conf.SlotID)
	n := h.hub.NotifyRoom(conf.District, event, c)
	logger.Debug().
		Str("equipment_id", conf.EquipmentID).
		Str("room", domain.RoomKey(conf.District)).
		Int("delivered", n).
		Msg("slot update broadcast")

	if h.relay != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.relay.Publish(ctx, conf.District, event); err != nil {
			logger.Error().Err(err).Str("equipment_id", conf.EquipmentID).Msg("relay slot update")
		}
	}
}

// Wait blocks until in-flight booking attempts have finished.
func (h *Handler) Wait() {
	h.inflight.Wait()
}
