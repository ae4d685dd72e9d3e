package conversation

// User-facing texts shared by several handlers.
const (
	msgFailure           = "Something went wrong, please try again later."
	msgOracleUnavailable = "The assistant did not answer in time, please try again."
	msgOracleContract    = "I could not make sense of that, please rephrase it."
	msgDetailsNotFound   = "Transaction details not found."
	msgNoSelection       = "Could not find the selected transaction. Pick it again from the /edit list."
	msgBackToNormal      = "You are back in the main menu."
	msgCategoryBlank     = "The category name cannot be empty. Send a name."
	msgNotFinancial      = "This message does not look like income or expenses."
	msgPermissionDenied  = "You are not allowed to broadcast messages."
	msgAskCurrency       = "Send your default currency, for example USD, EUR or UAH."
	msgAskReportRange    = "Send the report period as YYYY-MM-DD - YYYY-MM-DD."
	msgInvalidRange      = "Invalid format. Use YYYY-MM-DD - YYYY-MM-DD and run /report again."
	msgInvalidEdit       = "Invalid format of the new transaction data, nothing was changed."
	msgNoTransactions    = "No transactions match that filter."
	msgNothingToExport   = "You have no transactions to export."
)

const msgEditPrompt = `Send a filter separated by commas. For example:
"2025-02-20",
"2025-02-20 - 2025-02-25",
"Groceries",
"1000 - 2000",
"2025-02-20 - 2025-02-25, Groceries, 1000 - 2000"`

const msgHelp = `Send a message like "spent 300 on groceries" to record it.

/start - register and set your default currency
/category - manage your categories
/currency - change your default currency
/edit - find, edit or delete transactions
/report - income and expenses for a period
/export - download your transactions
/addtolist - add a note to your list
/normal - back to the main menu
/help - this overview`
