package fake

var firstNames = []string{
	"Michael", "Lindsay", "George", "Lucille", "Tobias", "Maeby", "Buster", "Gob",
	"Ann", "Lucille", "Stan", "Kitty", "Barry", "Sally", "Oscar", "Marta",
	"Amara", "Kenji", "Priya", "Mateo", "Ingrid", "Tariq", "Noor", "Sofia",
}

var lastNames = []string{
	"Bluth", "Funke", "Fünke", "Sitwell", "Veal", "Zuckerkorn", "Sanchez", "Nakamura",
	"Okafor", "Lindqvist", "Haddad", "Kowalski", "Moreau", "Patel", "Reyes", "Tanaka",
	"Walker", "Young", "O'Brien", "Ivanova",
}

var companySuffixes = []string{"Inc", "LLC", "Group", "Ltd", "Company", "Holdings"}

var streetNames = []string{
	"Balboa", "Harbor", "Cornballer", "Oak", "Maple", "Sudden Valley", "Ocean", "Pine", "Lake", "Hill",
}

var streetSuffixes = []string{"Street", "Avenue", "Boulevard", "Lane", "Road", "Way", "Court"}

var cities = []string{
	"Newport Beach", "Sudden Valley", "Springfield", "Riverside", "Fairview", "Lakeside",
	"Georgetown", "Madison", "Oakland", "Portland",
}

var states = []string{"CA", "NY", "TX", "WA", "OR", "IL", "FL", "MA", "CO", "AZ"}

var countries = []string{
	"United States", "Canada", "Mexico", "Brazil", "Germany", "France", "Japan", "India", "Nigeria", "Australia",
}

var jobs = []string{
	"Magician", "Analrapist", "Architect", "Accountant", "Attorney", "Actor", "Developer",
	"Nurse", "Pilot", "Chef", "Teacher", "Engineer",
}

var buzzAdjectives = []string{
	"adaptive", "balanced", "centralized", "distributed", "ergonomic", "focused",
	"integrated", "proactive", "robust", "seamless",
}

var buzzNouns = []string{
	"frozen banana", "paradigm", "synergy", "framework", "middleware", "interface",
	"protocol", "workforce", "hierarchy", "solution",
}

var words = []string{
	"banana", "stand", "money", "always", "there", "illusion", "chicken", "dance",
	"stair", "car", "model", "home", "family", "lesson", "mistake", "light",
	"treason", "yacht", "island", "ocean",
}

var domainSuffixes = []string{"com", "net", "org", "io"}
