package accesscard

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/vishvavidya/traininghub/core"
)

const (
	DateLayout  = "2006-01-02"
	DepositPaid = "Paid"
)

// Card is an office access card lent to a trainee. The card is held until SubmittedOn is set.
type Card struct {
	ID               int64     `json:"id" db:"id"`
	TraineeCode      string    `json:"trainee_code" db:"trainee_code"`
	TraineeName      string    `json:"trainee_name" db:"trainee_name"`
	Email            string    `json:"email" db:"email"`
	Contact          string    `json:"contact" db:"contact"`
	IDCardType       string    `json:"id_card_type" db:"id_card_type"`
	Number           string    `json:"access_card_number" db:"access_card_number"`
	AllocatedOn      time.Time `json:"card_allocation_date" db:"card_allocation_date"`
	SubmittedOn      null.Time `json:"card_submitted_date" db:"card_submitted_date"`
	TrainingDuration string    `json:"training_duration" db:"training_duration"`
	TrainerName      string    `json:"trainer_name" db:"trainer_name"`
	ManagerName      string    `json:"manager_name" db:"manager_name"`
	Deposit          string    `json:"deposit" db:"deposit"`
	CreatedBy        string    `json:"created_by_userid" db:"created_by_userid"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

func (c Card) Held() bool { return !c.SubmittedOn.Valid }

// details are the validated fields shared by NewCard and CardUpdate.
type details struct {
	TraineeCode      string `json:"trainee_code" validate:"notblank"`
	TraineeName      string `json:"trainee_name" validate:"fullname"`
	Email            string `json:"email" validate:"emailaddr"`
	Contact          string `json:"contact" validate:"contactno"`
	IDCardType       string `json:"id_card_type"`
	Number           string `json:"access_card_number" validate:"notblank"`
	AllocatedOn      string `json:"card_allocation_date" validate:"notblank"`
	SubmittedOn      string `json:"card_submitted_date"`
	TrainingDuration string `json:"training_duration"`
	TrainerName      string `json:"trainer_name"`
	ManagerName      string `json:"manager_name"`
}

func (d *details) clean() {
	d.TraineeCode = core.CleanString(d.TraineeCode)
	d.TraineeName = core.CleanString(d.TraineeName)
	d.Email = core.CleanString(d.Email, true /* lower */)
	d.Contact = core.CleanString(d.Contact)
	d.IDCardType = core.CleanString(d.IDCardType)
	d.Number = core.CleanString(d.Number)
	d.AllocatedOn = core.CleanString(d.AllocatedOn)
	d.SubmittedOn = core.CleanString(d.SubmittedOn)
	d.TrainingDuration = core.CleanString(d.TrainingDuration)
	d.TrainerName = core.CleanString(d.TrainerName)
	d.ManagerName = core.CleanString(d.ManagerName)
}

// NewCard is the allocation form.
type NewCard struct {
	TraineeCode      string `json:"traineeCode"`
	TraineeName      string `json:"traineeName"`
	Email            string `json:"email"`
	Contact          string `json:"contact"`
	IDCardType       string `json:"idCard"`
	Number           string `json:"accessCardNumber"`
	AllocatedOn      string `json:"cardAllocationDate"`
	TrainingDuration string `json:"trainingDuration"`
	TrainerName      string `json:"trainerName"`
	ManagerName      string `json:"managerName"`
}

func (nc NewCard) details() details {
	return details{
		TraineeCode:      nc.TraineeCode,
		TraineeName:      nc.TraineeName,
		Email:            nc.Email,
		Contact:          nc.Contact,
		IDCardType:       nc.IDCardType,
		Number:           nc.Number,
		AllocatedOn:      nc.AllocatedOn,
		TrainingDuration: nc.TrainingDuration,
		TrainerName:      nc.TrainerName,
		ManagerName:      nc.ManagerName,
	}
}

// CardUpdate replaces every editable field of the card ID. A card is handed back by setting SubmittedOn.
type CardUpdate struct {
	ID               int64  `json:"id"`
	TraineeCode      string `json:"trainee_code"`
	TraineeName      string `json:"trainee_name"`
	Email            string `json:"email"`
	Contact          string `json:"contact"`
	IDCardType       string `json:"id_card_type"`
	Number           string `json:"access_card_number"`
	AllocatedOn      string `json:"card_allocation_date"`
	SubmittedOn      string `json:"card_submitted_date"`
	TrainingDuration string `json:"training_duration"`
	TrainerName      string `json:"trainer_name"`
	ManagerName      string `json:"manager_name"`
}

func (cu CardUpdate) details() details {
	return details{
		TraineeCode:      cu.TraineeCode,
		TraineeName:      cu.TraineeName,
		Email:            cu.Email,
		Contact:          cu.Contact,
		IDCardType:       cu.IDCardType,
		Number:           cu.Number,
		AllocatedOn:      cu.AllocatedOn,
		SubmittedOn:      cu.SubmittedOn,
		TrainingDuration: cu.TrainingDuration,
		TrainerName:      cu.TrainerName,
		ManagerName:      cu.ManagerName,
	}
}
