package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldCollection = "collection"
	FieldRecordID   = "record_id"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldTransition = "transition"
	FieldFrom       = "from"
	FieldTo         = "to"
	FieldTrigger    = "trigger"
	FieldKey        = "key"
	FieldBackend    = "backend"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentIdentity = "identity"
	ComponentSession  = "session"
	ComponentWorker   = "worker"
	ComponentAMQP     = "amqp"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpLoad     = "load"
	OpSave     = "save"
	OpClear    = "clear"
	OpCheck    = "check"
	OpReload   = "reload"
	OpValidate = "validate"
	OpParse    = "parse"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithBucket adds the user and collection a storage call is scoped to
func (f LogFields) WithBucket(userID, collection string) LogFields {
	f[FieldUserID] = userID
	f[FieldCollection] = collection
	return f
}

// WithRecord adds collection and record id fields
func (f LogFields) WithRecord(collection, id string) LogFields {
	f[FieldCollection] = collection
	f[FieldRecordID] = id
	return f
}

// WithTransition adds identity transition fields
func (f LogFields) WithTransition(kind, from, to string) LogFields {
	f[FieldTransition] = kind
	f[FieldFrom] = from
	f[FieldTo] = to
	return f
}

// WithTrigger adds what caused an identity check
func (f LogFields) WithTrigger(trigger string) LogFields {
	f[FieldTrigger] = trigger
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
