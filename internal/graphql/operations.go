package graphql

// The server exposes a fixed catalog of named operations; the documents below
// mirror them field for field. Adding a field here without a matching server
// schema change breaks every call, so keep them in sync.

const queryCards = `
query Cards {
  cards {
    id
    name
    color
    credito_iniziale
    start_date
  }
}`

const queryExpenses = `
query Expenses($cardId: ID) {
  expenses(card_id: $cardId) {
    id
    description
    amount
    date
    category
    card_id
  }
}`

const queryIncomes = `
query Incomes($cardId: ID) {
  incomes(card_id: $cardId) {
    id
    description
    amount
    date
    category
    card_id
  }
}`

const queryExpenseProducts = `
query ExpenseProducts($expenseId: ID!) {
  expenseProducts(expenseId: $expenseId) {
    id
    name
    quantity
    note
    price
    item_type
    scadenza
  }
}`

const queryUsers = `
query Users {
  users {
    id
    name
    email
  }
}`

const queryAldiProducts = `
query GetAldiProducts {
  aldiProducts {
    id
    name
    price
    category
    image
    sku
  }
}`

const queryAldiCategories = `
query GetAldiCategories {
  aldiCategories {
    category
  }
}`

const queryAldiProductBySku = `
query GetAldiProductBySku($sku: String!) {
  aldiProduct(sku: $sku) {
    name
    price
    category
    description
    image
    sku
  }
}`

const mutationAddExpense = `
mutation AddExpense($expenseInput: ExpenseInput!) {
  addExpense(expenseInput: $expenseInput) {
    id
    description
    amount
    date
    category
    card_id
  }
}`

const mutationAddIncome = `
mutation AddIncome($incomeInput: IncomeInput!) {
  addIncome(incomeInput: $incomeInput) {
    id
    description
    amount
    date
    category
    card_id
  }
}`

const mutationDeleteExpense = `
mutation DeleteExpense($id: ID!) {
  deleteExpense(id: $id) {
    id
  }
}`

const mutationDeleteExpenses = `
mutation DeleteExpenses($ids: [ID!]!) {
  deleteExpenses(ids: $ids) {
    id
  }
}`

const mutationDeleteIncome = `
mutation DeleteIncome($id: ID!) {
  deleteIncome(id: $id) {
    id
  }
}`

const mutationDeleteIncomes = `
mutation DeleteIncomes($ids: [ID!]!) {
  deleteIncomes(ids: $ids) {
    id
  }
}`

const mutationAddCard = `
mutation AddCard($input: CardInput!) {
  addCard(input: $input) {
    id
    name
    color
  }
}`

const mutationUpdateCard = `
mutation UpdateCard($id: ID!, $input: CardUpdateInput!) {
  updateCard(id: $id, input: $input) {
    id
    name
    color
    credito_iniziale
    start_date
  }
}`

const mutationAddUser = `
mutation AddUser($input: UserInput!) {
  addUser(input: $input) {
    id
    name
    email
  }
}`

const mutationAddExpenseProduct = `
mutation AddExpenseProduct($expenseId: ID!, $product: ExpenseProductInput!) {
  addExpenseProduct(expenseId: $expenseId, product: $product) {
    id
    name
    quantity
    price
    note
  }
}`
