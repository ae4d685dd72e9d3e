package conversation

import "fmt"

// State is the closed set of interaction states.
type State int

// Interaction states. The zero value is StateNormal.
const (
	StateNormal State = iota
	StateAddToList
	StateAddCategory
	StateDeleteCategory
	StateEditCategory
	StateEditCategoryName
	StateEditFilterInput
	StateAwaitingNewTransactionData
	StateExportFormatChosen
	StateReportDateRangeInput
	StateSetDefaultCurrency
	StateAwaitingBroadcastMessage
)

var stateNames = map[State]string{
	StateNormal:                     "normal",
	StateAddToList:                  "add_to_list",
	StateAddCategory:                "add_category",
	StateDeleteCategory:             "delete_category",
	StateEditCategory:               "edit_category",
	StateEditCategoryName:           "edit_category_name",
	StateEditFilterInput:            "edit_filter_input",
	StateAwaitingNewTransactionData: "awaiting_new_transaction_data",
	StateExportFormatChosen:         "export_format_chosen",
	StateReportDateRangeInput:       "report_date_range_input",
	StateSetDefaultCurrency:         "set_default_currency",
	StateAwaitingBroadcastMessage:   "awaiting_broadcast_message",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Valid reports whether s is one of the declared states.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}
