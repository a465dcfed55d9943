package handlers

import (
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/livedesk/livedesk/internal/api"
	"github.com/livedesk/livedesk/internal/database"
	"github.com/livedesk/livedesk/internal/events"
)

// DeviceHandler handles device records and ticket-device links
type DeviceHandler struct {
	broadcaster Broadcaster
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(broadcaster Broadcaster) *DeviceHandler {
	return &DeviceHandler{broadcaster: broadcaster}
}

// SetupRoutes sets up device routes
func (h *DeviceHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/devices/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/devices/{id}", h.handleUpdate)
	mux.HandleFunc("POST /api/tickets/{id}/devices/{deviceId}", h.handleLink)
	mux.HandleFunc("DELETE /api/tickets/{id}/devices/{deviceId}", h.handleUnlink)
}

// handleGet handles GET /api/devices/{id}. Clients call this to resolve
// a device.linked event into a full record.
func (h *DeviceHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid device ID")
		return
	}

	device, err := database.GetDeviceByID(database.GetDB(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Device not found")
			return
		}
		log.Printf("DeviceHandler: Failed to get device %d: %v", id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to get device")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.DeviceToWire(*device))
}

// handleUpdate handles PUT /api/devices/{id}. A device.updated event is
// broadcast per changed field, for every ticket the device is linked to.
func (h *DeviceHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid device ID")
		return
	}

	var req api.UpdateDeviceRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Fields) == 0 {
		api.RespondError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	for name := range req.Fields {
		if !database.IsDeviceField(name) {
			api.RespondError(w, http.StatusBadRequest, "Unknown device field: "+name)
			return
		}
	}

	db := database.GetDB()
	if err := database.UpdateDeviceFields(db, id, req.Fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Device not found")
			return
		}
		log.Printf("DeviceHandler: Failed to update device %d: %v", id, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to update device")
		return
	}

	ticketIDs, err := database.GetTicketIDsForDevice(db, id)
	if err != nil {
		log.Printf("DeviceHandler: Failed to resolve tickets for device %d: %v", id, err)
		ticketIDs = nil
	}
	for _, ticketID := range ticketIDs {
		for field, value := range req.Fields {
			h.broadcaster.Broadcast(events.DeviceUpdated{
				TicketID: ticketID,
				DeviceID: id,
				Field:    field,
				Value:    value,
			})
		}
	}
	api.RespondNoContent(w)
}

// handleLink handles POST /api/tickets/{id}/devices/{deviceId}
func (h *DeviceHandler) handleLink(w http.ResponseWriter, r *http.Request) {
	ticketID, deviceID, ok := devicePair(r)
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := database.LinkDeviceToTicket(database.GetDB(), ticketID, deviceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Ticket or device not found")
			return
		}
		log.Printf("DeviceHandler: Failed to link device %d to ticket %d: %v", deviceID, ticketID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to link device")
		return
	}

	h.broadcaster.Broadcast(events.DeviceLinked{TicketID: ticketID, DeviceID: deviceID})
	api.RespondNoContent(w)
}

// handleUnlink handles DELETE /api/tickets/{id}/devices/{deviceId}
func (h *DeviceHandler) handleUnlink(w http.ResponseWriter, r *http.Request) {
	ticketID, deviceID, ok := devicePair(r)
	if !ok {
		api.RespondError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := database.UnlinkDeviceFromTicket(database.GetDB(), ticketID, deviceID); err != nil {
		log.Printf("DeviceHandler: Failed to unlink device %d from ticket %d: %v", deviceID, ticketID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to unlink device")
		return
	}

	h.broadcaster.Broadcast(events.DeviceUnlinked{TicketID: ticketID, DeviceID: deviceID})
	api.RespondNoContent(w)
}

func devicePair(r *http.Request) (uint, uint, bool) {
	ticketID, ok := pathID(r, "id")
	if !ok {
		return 0, 0, false
	}
	deviceID, ok := pathID(r, "deviceId")
	if !ok {
		return 0, 0, false
	}
	return ticketID, deviceID, true
}
