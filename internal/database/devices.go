package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Updatable device fields, keyed by their wire name.
var deviceFieldColumns = map[string]string{
	"name":       "name",
	"hostname":   "hostname",
	"ip_address": "ip_address",
	"model":      "model",
	"location":   "location",
	"notes":      "notes",
}

// IsDeviceField reports whether name is an updatable device field.
func IsDeviceField(name string) bool {
	_, ok := deviceFieldColumns[name]
	return ok
}

// CreateDevice inserts a new device
func CreateDevice(db *gorm.DB, device *Device) error {
	return db.Create(device).Error
}

// GetDeviceByID retrieves a device by ID
func GetDeviceByID(db *gorm.DB, id uint) (*Device, error) {
	var device Device
	if err := db.First(&device, id).Error; err != nil {
		return nil, err
	}
	return &device, nil
}

// GetDevicesForTicket returns all devices linked to a ticket
func GetDevicesForTicket(db *gorm.DB, ticketID uint) ([]Device, error) {
	var devices []Device
	err := db.Joins("JOIN ticket_devices ON ticket_devices.device_id = devices.id").
		Where("ticket_devices.ticket_id = ?", ticketID).
		Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// GetTicketIDsForDevice returns the IDs of every ticket a device is
// linked to.
func GetTicketIDsForDevice(db *gorm.DB, deviceID uint) ([]uint, error) {
	var ids []uint
	err := db.Model(&TicketDevice{}).
		Where("device_id = ?", deviceID).
		Pluck("ticket_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LinkDeviceToTicket links a device to a ticket. Already-linked is a no-op.
func LinkDeviceToTicket(db *gorm.DB, ticketID, deviceID uint) error {
	if _, err := GetTicketByID(db, ticketID); err != nil {
		return fmt.Errorf("ticket %d: %w", ticketID, err)
	}
	if _, err := GetDeviceByID(db, deviceID); err != nil {
		return fmt.Errorf("device %d: %w", deviceID, err)
	}

	link := TicketDevice{TicketID: ticketID, DeviceID: deviceID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

// UnlinkDeviceFromTicket removes a device link. Absent links are a no-op.
func UnlinkDeviceFromTicket(db *gorm.DB, ticketID, deviceID uint) error {
	return db.Where("ticket_id = ? AND device_id = ?", ticketID, deviceID).
		Delete(&TicketDevice{}).Error
}

// UpdateDeviceFields updates device fields by wire name
func UpdateDeviceFields(db *gorm.DB, id uint, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	updates := make(map[string]interface{}, len(fields)+1)
	for field, value := range fields {
		column, ok := deviceFieldColumns[field]
		if !ok {
			return fmt.Errorf("unknown device field: %s", field)
		}
		updates[column] = value
	}
	updates["updated_at"] = time.Now()

	result := db.Model(&Device{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
